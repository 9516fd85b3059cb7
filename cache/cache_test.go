package cache

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/unf/dataset"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

const csvData = "a,b\n1,x\n2,y\n"

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func report(t *testing.T, src string) *dataset.Report {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(src), table.DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	source, err := dataset.SourceOf("data.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("SourceOf: %v", err)
	}
	r, err := dataset.Compute(context.Background(), tbl, unf.DefaultConfig(), dataset.Options{Source: source})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return r
}

func TestPutLookup(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r := report(t, csvData)
	profile := Profile(unf.DefaultConfig(), table.DefaultReadOptions())

	if _, ok, err := s.Lookup(ctx, r.Source.CID, profile); err != nil || ok {
		t.Fatalf("empty cache lookup: ok=%v err=%v", ok, err)
	}
	stored, err := s.Put(ctx, r.Source.CID, profile, r)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	wantCID, _ := r.CID()
	if stored.ReportCID != wantCID || stored.SourceName != "data.csv" {
		t.Fatalf("stored = %+v", stored)
	}

	got, ok, err := s.Lookup(ctx, r.Source.CID, profile)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.UNF != r.UNF || got.Report == nil || got.Report.UNF != r.UNF || got.Rows != 2 || got.Columns != 2 {
		t.Fatalf("lookup = %+v", got)
	}

	other := Profile(mustConfig(t, unf.WithPrecision(9)), table.DefaultReadOptions())
	if _, ok, _ := s.Lookup(ctx, r.Source.CID, other); ok {
		t.Fatalf("lookup under another profile should miss")
	}
}

func TestPut_Replaces(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r := report(t, csvData)
	profile := "p"
	if _, err := s.Put(ctx, r.Source.CID, profile, r); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put(ctx, r.Source.CID, profile, r); err != nil {
		t.Fatalf("Put again: %v", err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d want 1", len(entries))
	}
}

func TestListRemoveClear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r1 := report(t, csvData)
	r2 := report(t, "a\n5\n")
	for _, p := range []string{"p1", "p2"} {
		if _, err := s.Put(ctx, r1.Source.CID, p, r1); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if _, err := s.Put(ctx, r2.Source.CID, "p1", r2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil || len(entries) != 3 {
		t.Fatalf("List: %d entries, err=%v", len(entries), err)
	}

	n, err := s.Remove(ctx, r1.Source.CID, "p2")
	if err != nil || n != 1 {
		t.Fatalf("Remove one profile: n=%d err=%v", n, err)
	}
	n, err = s.Remove(ctx, r1.Source.CID, "")
	if err != nil || n != 1 {
		t.Fatalf("Remove all profiles: n=%d err=%v", n, err)
	}
	n, err = s.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Clear: n=%d err=%v", n, err)
	}
}

func TestLookup_DropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r := report(t, csvData)
	if _, err := s.Put(ctx, r.Source.CID, "p", r); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE reports SET report = ?`, []byte("{}\n")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, ok, err := s.Lookup(ctx, r.Source.CID, "p"); err != nil || ok {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
	entries, _ := s.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("corrupt entry not removed")
	}
}

func TestOpen_SchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = s.Close()
	if _, err := Open(path, nil); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	opts := table.DefaultReadOptions()
	a := Profile(unf.DefaultConfig(), opts)
	if a != Profile(unf.DefaultConfig(), opts) {
		t.Fatalf("profile not deterministic")
	}
	if !strings.HasPrefix(a, "UNF:6:") {
		t.Fatalf("profile = %q", a)
	}
	opts.NaNAsMissing = false
	if a == Profile(unf.DefaultConfig(), opts) {
		t.Fatalf("reader options must change the profile")
	}
}

func mustConfig(t *testing.T, opts ...unf.Option) unf.Config {
	t.Helper()
	cfg, err := unf.NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}
