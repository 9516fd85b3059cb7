// Package ipfs stores reports as raw blocks in a local Kubo repository by
// shelling out to the "ipfs" command. It needs no running daemon.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/storage"
)

// CAS is a content-addressable store backed by the local Kubo CLI.
//
// Blocks are written as CIDv1 raw sha2-256, the same CIDs cidutil derives,
// so a report published here is addressable by the id printed by
// "unf store put". Every read is checked against the requested CID.
type CAS struct {
	bin string
	env []string
}

var _ storage.CAS = (*CAS)(nil)

type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Repo sets IPFS_PATH for every invocation when non-empty.
	Repo string
	// Env optionally replaces the command environment. If nil, the process
	// environment is used.
	Env []string
}

func New(opts Options) *CAS {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	env := opts.Env
	if opts.Repo != "" {
		if env == nil {
			env = os.Environ()
		}
		env = append(append([]string(nil), env...), "IPFS_PATH="+opts.Repo)
	}
	return &CAS{bin: bin, env: env}
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	out, err := c.run(ctx, data,
		"block", "put",
		"--quiet",
		"--cid-codec=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}
	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if !got.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	out, err := c.run(ctx, nil, "block", "get", id.String())
	if err != nil {
		if isLikelyNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if !cidutil.Matches(id, out) {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, storage.ErrInvalidCID
	}
	if _, err := c.run(ctx, nil, "block", "stat", "--offline", id.String()); err != nil {
		if isLikelyNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *CAS) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		s := strings.TrimSpace(string(ee.Stderr))
		if s == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", s)
	}
	return nil, err
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such block")
}
