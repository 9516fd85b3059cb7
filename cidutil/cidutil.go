// Package cidutil derives the content identifiers used for reports and
// source files: CIDv1, raw codec, sha2-256 multihash.
package cidutil

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CIDv1 (raw + sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String is Sum rendered in its default base32 form, or "" on failure.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// SumReader hashes r to EOF and returns its CID and byte count. It yields
// the same CID as Sum over the same bytes without buffering them.
func SumReader(r io.Reader) (cid.Cid, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return cid.Undef, n, err
	}
	mh, err := multihash.Encode(h.Sum(nil), multihash.SHA2_256)
	if err != nil {
		return cid.Undef, n, err
	}
	return cid.NewCidV1(cid.Raw, mh), n, nil
}

// Parse decodes s and requires the raw codec with a sha2-256 multihash.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, fmt.Errorf("cidutil: undefined cid %q", s)
	}
	if id.Version() != 1 || id.Type() != cid.Raw {
		return cid.Undef, fmt.Errorf("cidutil: %s is not a CIDv1 raw cid", s)
	}
	if id.Prefix().MhType != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("cidutil: %s is not sha2-256", s)
	}
	return id, nil
}

// Matches reports whether data hashes to id.
func Matches(id cid.Cid, data []byte) bool {
	got, err := Sum(data)
	return err == nil && got.Equals(id)
}
