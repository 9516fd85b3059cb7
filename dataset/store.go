package dataset

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/storage"
)

// Publish stores the canonical bytes of r and returns their CID.
func Publish(ctx context.Context, cas storage.CAS, r *Report) (cid.Cid, error) {
	if err := Verify(r); err != nil {
		return cid.Undef, fmt.Errorf("refusing to publish: %w", err)
	}
	b, err := r.Canonical()
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(ctx, b)
}

// Fetch loads a report by CID and checks that the bytes hash to it and
// parse as a verified canonical report.
func Fetch(ctx context.Context, cas storage.CAS, id cid.Cid) (*Report, error) {
	b, err := cas.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(id, b) {
		return nil, fmt.Errorf("%w: %s", storage.ErrCIDMismatch, id)
	}
	r, err := ParseReport(b)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, err)
	}
	if err := Verify(r); err != nil {
		return nil, fmt.Errorf("report %s: %w", id, err)
	}
	return r, nil
}

// ValidateCanonical is a storage.Validator that only admits canonical,
// self-consistent reports.
func ValidateCanonical(data []byte) error {
	r, err := ParseReport(data)
	if err != nil {
		return err
	}
	return Verify(r)
}

var _ storage.Validator = ValidateCanonical
