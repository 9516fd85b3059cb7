package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/testkit"
)

type failingCAS struct{ err error }

func (f failingCAS) Put(context.Context, []byte) (cid.Cid, error) { return cid.Undef, f.err }
func (f failingCAS) Get(context.Context, cid.Cid) ([]byte, error) { return nil, f.err }
func (f failingCAS) Has(context.Context, cid.Cid) (bool, error) { return false, f.err }

func TestMultiCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.MultiCAS{Adapters: []storage.CAS{testkit.NewMemCAS(), testkit.NewMemCAS()}}
	})
}

func TestMultiCAS_FallbackOrder(t *testing.T) {
	ctx := context.Background()
	a, b := testkit.NewMemCAS(), testkit.NewMemCAS()
	id, err := b.Put(ctx, []byte("only in b"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	m := storage.MultiCAS{Adapters: []storage.CAS{a, b}}
	got, err := m.Get(ctx, id)
	if err != nil || string(got) != "only in b" {
		t.Fatalf("fallback Get: %q %v", got, err)
	}
	if ok, err := m.Has(ctx, id); err != nil || !ok {
		t.Fatalf("Has: %v %v", ok, err)
	}

	if _, err := m.Put(ctx, []byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Puts != 1 || b.Puts != 1 {
		t.Fatalf("MultiCAS must write only to the first adapter: a=%d b=%d", a.Puts, b.Puts)
	}

	boom := errors.New("boom")
	broken := storage.MultiCAS{Adapters: []storage.CAS{failingCAS{err: boom}, b}}
	if _, err := broken.Get(ctx, id); !errors.Is(err, boom) {
		t.Fatalf("hard errors must stop the search, got %v", err)
	}
	if _, err := (storage.MultiCAS{}).Put(ctx, nil); err == nil {
		t.Fatalf("expected error with no adapters")
	}
}

func TestReplicatingCAS(t *testing.T) {
	ctx := context.Background()
	a, b := testkit.NewMemCAS(), testkit.NewMemCAS()
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}
	id, per, err := r.PutAll(ctx, []byte("both"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if per["a"] != id || per["b"] != id {
		t.Fatalf("per-backend ids: %v", per)
	}
	for _, cas := range []storage.CAS{a, b} {
		if ok, _ := cas.Has(ctx, id); !ok {
			t.Fatalf("replica missing object")
		}
	}

	boom := errors.New("disk full")
	bad := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "x", CAS: failingCAS{err: boom}}}}
	if _, err := bad.Put(ctx, []byte("z")); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
