// Package testkit holds the shared conformance suite every storage.CAS
// backend runs, plus an in-memory CAS for tests of higher layers.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte(`{"unf":"UNF:6:zetKKa8vNPES38aPJMHrFA=="}`)

		id, err := cas.Put(ctx, want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.Sum(want)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if !cidutil.Matches(id, got) {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte(`{"unf":"same"}`)

		id1, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte(`{"unf":"missing"}`)
		id, err := cidutil.Sum(b)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}

		if ok, err := cas.Has(ctx, id); err != nil || ok {
			t.Fatalf("Has for missing CID: ok=%v err=%v", ok, err)
		}
		if _, err := cas.Get(ctx, id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(ctx, b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if ok, err := cas.Has(ctx, id); err != nil || !ok {
			t.Fatalf("Has after Put: ok=%v err=%v", ok, err)
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if ok, _ := cas.Has(ctx, undef); ok {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(ctx, undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
