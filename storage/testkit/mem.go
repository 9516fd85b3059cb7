package testkit

import (
	"bytes"
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/storage"
)

// MemCAS is an in-memory storage.CAS. The zero value is not usable; call
// NewMemCAS.
type MemCAS struct {
	mu   sync.RWMutex
	m    map[string][]byte
	Puts int
}

var _ storage.CAS = (*MemCAS)(nil)

func NewMemCAS() *MemCAS {
	return &MemCAS{m: make(map[string][]byte)}
}

func (c *MemCAS) Put(_ context.Context, b []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Puts++
	k := id.String()
	if existing, ok := c.m[k]; ok {
		if !bytes.Equal(existing, b) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.m[k] = append([]byte(nil), b...)
	return id, nil
}

func (c *MemCAS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.m[id.String()]
	c.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (c *MemCAS) Has(_ context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[id.String()]
	return ok, nil
}
