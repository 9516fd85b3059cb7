// Package bundle moves reports between stores as a deterministic TAR
// archive. Each report is stored under reports/<cid>.json; an optional
// index.json lists the reports and any labels naming them.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/storage"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	indexEntry   = "index.json"
	reportPrefix = "reports/"
	reportSuffix = ".json"
)

var epoch = time.Unix(0, 0).UTC()

// ErrDuplicate reports a bundle holding the same report twice.
var ErrDuplicate = errors.New("bundle: duplicate report entry")

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names (usually
	// source file names) to exported report CIDs.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is written.
	IncludeIndex bool
	// Validate, when set, must accept every report before it is written.
	Validate storage.Validator
}

// Export writes the reports named by ids to w.
//
// The archive bytes depend only on the set of ids and the options: entries
// are sorted by CID and TAR headers are normalized. Every payload is checked
// against its CID.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return errors.New("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	keys := make([]string, 0, len(uniq))
	for s := range uniq {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	labels, err := sortedLabels(opts.Labels, uniq)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(w)
	entries := make([]indexReport, 0, len(keys))
	for _, s := range keys {
		if err := ctx.Err(); err != nil {
			_ = tw.Close()
			return err
		}
		id := uniq[s]
		b, err := cas.Get(ctx, id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: get %s: %w", s, err)
		}
		if !cidutil.Matches(id, b) {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		if opts.Validate != nil {
			if err := opts.Validate(b); err != nil {
				_ = tw.Close()
				return fmt.Errorf("bundle: report %s: %w", s, err)
			}
		}
		if err := writeFile(tw, reportPrefix+s+reportSuffix, b); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, indexReport{CID: s, Size: len(b)})
	}

	if opts.IncludeIndex {
		b, err := marshalIndex(index{Version: FormatVersion, Reports: entries, Labels: labels})
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, indexEntry, b); err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown skips entries that are neither reports nor the index.
	// The default fails closed.
	IgnoreUnknown bool
	// Validate, when set, must accept every report before it is stored.
	Validate storage.Validator
}

// Import reads a bundle from r, stores every report in cas and returns the
// imported CIDs in archive order.
func Import(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, errors.New("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var imported []cid.Cid
	for {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return imported, nil
		}
		if err != nil {
			return imported, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return imported, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unexpected tar entry type %v (%s)", h.Typeflag, name)
		}
		if name == indexEntry {
			continue
		}
		if !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportSuffix) {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, err := cidutil.Parse(strings.TrimSuffix(strings.TrimPrefix(name, reportPrefix), reportSuffix))
		if err != nil {
			return imported, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return imported, err
		}
		if !cidutil.Matches(id, payload) {
			return imported, storage.ErrCIDMismatch
		}
		key := id.String()
		if _, ok := seen[key]; ok {
			return imported, fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
		seen[key] = struct{}{}
		if opts.Validate != nil {
			if err := opts.Validate(payload); err != nil {
				return imported, fmt.Errorf("bundle: report %s: %w", key, err)
			}
		}

		putID, err := cas.Put(ctx, payload)
		if err != nil {
			return imported, err
		}
		if !putID.Equals(id) {
			return imported, storage.ErrCIDMismatch
		}
		imported = append(imported, id)
	}
}

type index struct {
	Version int           `json:"version"`
	Reports []indexReport `json:"reports"`
	Labels  []indexLabel  `json:"labels,omitempty"`
}

type indexReport struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func sortedLabels(in map[string]cid.Cid, exported map[string]cid.Cid) ([]indexLabel, error) {
	if len(in) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]indexLabel, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, errors.New("bundle: empty label name")
		}
		id := in[name]
		if !id.Defined() {
			return nil, storage.ErrInvalidCID
		}
		if _, ok := exported[id.String()]; !ok {
			return nil, fmt.Errorf("bundle: label %q names %s, which is not exported", name, id)
		}
		out = append(out, indexLabel{Name: name, CID: id.String()})
	}
	return out, nil
}

// marshalIndex relies on index holding only structs and slices, which
// encoding/json renders deterministically.
func marshalIndex(idx index) ([]byte, error) {
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
