package storage

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS provides deterministic, ordered fallback across multiple CAS adapters.
//
// Hydration order is the slice order in Adapters; callers MUST supply a fixed order.
//
// Put is defined to write only to the first adapter.
type MultiCAS struct {
	Adapters []CAS
}

var _ CAS = MultiCAS{}

func (m MultiCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no adapters")
	}
	return m.Adapters[0].Put(ctx, data)
}

func (m MultiCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return getOrdered(ctx, id, m.Adapters)
}

func (m MultiCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, id, m.Adapters)
}

// getOrdered returns the first hit. A non-NotFound error from an earlier
// adapter stops the search.
func getOrdered(ctx context.Context, id cid.Cid, adapters []CAS) ([]byte, error) {
	for _, cas := range adapters {
		if cas == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := cas.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func hasAny(ctx context.Context, id cid.Cid, adapters []CAS) (bool, error) {
	var firstErr error
	for _, cas := range adapters {
		if cas == nil {
			continue
		}
		ok, err := cas.Has(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}
