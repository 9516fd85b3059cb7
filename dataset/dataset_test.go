package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/testkit"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

const sampleCSV = "id,score,name\n1,2.5,a\n2,NA,b\n3,-1,c\n"

func sampleTable(t *testing.T, src string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(src), table.DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	src, err := SourceOf("sample.csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("SourceOf: %v", err)
	}
	r, err := Compute(context.Background(), sampleTable(t, sampleCSV), unf.DefaultConfig(), Options{Workers: 2, Source: src})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return r
}

func TestCompute_DatasetIsCombinationOfColumns(t *testing.T) {
	tbl := sampleTable(t, sampleCSV)
	r := sampleReport(t)
	cfg := unf.DefaultConfig()

	if r.Rows != 3 || len(r.Columns) != 3 {
		t.Fatalf("rows=%d columns=%d", r.Rows, len(r.Columns))
	}
	var colUNFs []string
	for i, c := range tbl.Columns {
		fp, err := unf.Compute(c.Values, cfg)
		if err != nil {
			t.Fatalf("Compute column: %v", err)
		}
		if r.Columns[i].Name != c.Name || r.Columns[i].UNF != fp.String() {
			t.Fatalf("column %d = %+v, want %s %s", i, r.Columns[i], c.Name, fp)
		}
		colUNFs = append(colUNFs, fp.String())
	}
	want, err := unf.Combine(colUNFs, cfg)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if r.UNF != want.String() {
		t.Fatalf("dataset unf = %s want %s", r.UNF, want)
	}
	if got, _ := r.Column("score"); got.Missing != 1 || got.Type != "numeric" {
		t.Fatalf("score column = %+v", got)
	}
	if r.Source == nil || r.Source.Bytes != int64(len(sampleCSV)) {
		t.Fatalf("source = %+v", r.Source)
	}
}

func TestCompute_ColumnOrderDoesNotChangeDatasetUNF(t *testing.T) {
	a := sampleReport(t)
	reordered := sampleTable(t, "name,id,score\na,1,2.5\nb,2,NA\nc,3,-1\n")
	b, err := Compute(context.Background(), reordered, unf.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if a.UNF != b.UNF {
		t.Fatalf("dataset unf depends on column order: %s vs %s", a.UNF, b.UNF)
	}
}

func TestCompute_WorkerCountIsIrrelevant(t *testing.T) {
	tbl := sampleTable(t, sampleCSV)
	var first string
	for _, w := range []int{1, 2, 8} {
		r, err := Compute(context.Background(), tbl, unf.DefaultConfig(), Options{Workers: w})
		if err != nil {
			t.Fatalf("Compute(workers=%d): %v", w, err)
		}
		if first == "" {
			first = r.UNF
		}
		if r.UNF != first {
			t.Fatalf("workers=%d: %s want %s", w, r.UNF, first)
		}
	}
}

func TestCompute_EmptyTable(t *testing.T) {
	cfg := unf.DefaultConfig()
	emptyVector, err := unf.Compute(nil, cfg)
	if err != nil {
		t.Fatalf("Compute(nil): %v", err)
	}
	r, err := Compute(context.Background(), sampleTable(t, "a,b\n"), cfg, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.Rows != 0 || len(r.Columns) != 2 {
		t.Fatalf("rows=%d columns=%d", r.Rows, len(r.Columns))
	}
	cols := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		if c.UNF != emptyVector.String() {
			t.Fatalf("column %s unf = %s want %s", c.Name, c.UNF, emptyVector)
		}
		cols[i] = c.UNF
	}
	want, err := unf.Combine(cols, cfg)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if r.UNF != want.String() {
		t.Fatalf("zero-row table unf = %s want combination of its columns %s", r.UNF, want)
	}
	empty, _ := unf.Combine(nil, cfg)
	if r.UNF == empty.String() {
		t.Fatalf("zero-row table with columns must not hash as an empty combination")
	}
	if err := Verify(r); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestCompute_Errors(t *testing.T) {
	if _, err := Compute(context.Background(), nil, unf.DefaultConfig(), Options{}); err == nil {
		t.Fatalf("expected error for nil table")
	}
	bad := unf.DefaultConfig()
	bad.HashBits = 100
	if _, err := Compute(context.Background(), sampleTable(t, sampleCSV), bad, Options{}); !unf.IsKind(err, unf.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compute(ctx, sampleTable(t, sampleCSV), unf.DefaultConfig(), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReport_CanonicalRoundTrip(t *testing.T) {
	r := sampleReport(t)
	b, err := r.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if !bytes.HasSuffix(b, []byte("}\n")) {
		t.Fatalf("canonical bytes must end in a single newline")
	}
	parsed, err := ParseReport(b)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	again, _ := parsed.Canonical()
	if !bytes.Equal(b, again) {
		t.Fatalf("canonical bytes changed across parse")
	}
	id1, _ := r.CID()
	id2, _ := parsed.CID()
	if id1 == "" || id1 != id2 {
		t.Fatalf("cid mismatch: %q vs %q", id1, id2)
	}
}

func TestParseReport_RejectsNonCanonical(t *testing.T) {
	r := sampleReport(t)
	b, _ := r.Canonical()

	cases := map[string][]byte{
		"no trailing newline": bytes.TrimSuffix(b, []byte("\n")),
		"crlf":                bytes.ReplaceAll(b, []byte("\n"), []byte("\r\n")),
		"compact":             compact(t, b),
		"unknown field":       bytes.Replace(b, []byte(`"rows"`), []byte(`"extra": 1, "rows"`), 1),
		"trailing data":       append(append([]byte(nil), b...), []byte("{}\n")...),
		"invalid utf8":        append([]byte{0xff}, b...),
	}
	for name, in := range cases {
		if _, err := ParseReport(in); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func compact(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	return buf.Bytes()
}

func TestValidate_Rejects(t *testing.T) {
	mutations := map[string]func(r *Report){
		"format":          func(r *Report) { r.Format = "other" },
		"version":         func(r *Report) { r.UNFVersion = 5 },
		"params":          func(r *Report) { r.Params.HashBits = 100 },
		"duplicate":       func(r *Report) { r.Columns[1].Name = r.Columns[0].Name },
		"type":            func(r *Report) { r.Columns[0].Type = "float" },
		"missing":         func(r *Report) { r.Columns[0].Missing = 99 },
		"column unf":      func(r *Report) { r.Columns[0].UNF = "UNF:5:abc" },
		"params mismatch": func(r *Report) { r.Columns[0].UNF = "UNF:6:N6:" + strings.TrimPrefix(r.Columns[0].UNF, "UNF:6:") },
		"source cid":      func(r *Report) { r.Source.CID = "not-a-cid" },
		"nil columns":     func(r *Report) { r.Columns = nil },
	}
	for name, mutate := range mutations {
		r := sampleReport(t)
		mutate(r)
		if err := r.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestVerify_DetectsTamperedColumn(t *testing.T) {
	r := sampleReport(t)
	r.Columns[0].UNF = r.Columns[1].UNF
	if err := Verify(r); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestRecheck(t *testing.T) {
	r := sampleReport(t)
	changes, err := Recheck(context.Background(), r, sampleTable(t, sampleCSV), Options{})
	if err != nil {
		t.Fatalf("Recheck: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("unexpected changes: %v", changes)
	}

	edited := sampleTable(t, "id,score,name\n1,2.5,a\n2,7,b\n3,-1,c\n")
	changes, err = Recheck(context.Background(), r, edited, Options{})
	if err != nil {
		t.Fatalf("Recheck: %v", err)
	}
	fields := map[string]bool{}
	for _, c := range changes {
		fields[c.Column+"/"+c.Field] = true
	}
	if !fields["/unf"] || !fields["score/unf"] || !fields["score/missing"] || fields["id/unf"] {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiff(t *testing.T) {
	a := sampleReport(t)
	b, err := Compute(context.Background(),
		sampleTable(t, "name,id,extra\na,1,x\nb,2,y\nc,3,z\n"),
		unf.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got := map[string]ChangeKind{}
	for _, c := range Diff(a, b) {
		got[c.Column] = c.Kind
	}
	want := map[string]ChangeKind{
		"":      ChangeChanged,
		"extra": ChangeAdded,
		"score": ChangeRemoved,
		"id":    ChangeMoved,
		"name":  ChangeMoved,
	}
	for col, kind := range want {
		if got[col] != kind {
			t.Fatalf("column %q: kind %q want %q (all: %v)", col, got[col], kind, got)
		}
	}
	if len(Diff(a, a)) != 0 {
		t.Fatalf("a report differs from itself")
	}
}

func TestPublishFetch(t *testing.T) {
	ctx := context.Background()
	cas := testkit.NewMemCAS()
	r := sampleReport(t)

	id, err := Publish(ctx, cas, r)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want, _ := r.CID()
	if id.String() != want {
		t.Fatalf("cid = %s want %s", id, want)
	}
	got, err := Fetch(ctx, cas, id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.UNF != r.UNF {
		t.Fatalf("fetched unf = %s want %s", got.UNF, r.UNF)
	}

	r.Columns[0].UNF = r.Columns[1].UNF
	if _, err := Publish(ctx, cas, r); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected publish to refuse an inconsistent report, got %v", err)
	}
}

func TestFetch_NotFound(t *testing.T) {
	cas := testkit.NewMemCAS()
	other := testkit.NewMemCAS()
	id, err := Publish(context.Background(), other, sampleReport(t))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := Fetch(context.Background(), cas, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateCanonical(t *testing.T) {
	b, _ := sampleReport(t).Canonical()
	if err := ValidateCanonical(b); err != nil {
		t.Fatalf("ValidateCanonical: %v", err)
	}
	if err := ValidateCanonical([]byte("hello\n")); err == nil {
		t.Fatalf("expected rejection of arbitrary bytes")
	}
}
