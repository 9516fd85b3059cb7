package bundle_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/dataset"
	"xdao.co/unf/storage"
	"xdao.co/unf/storage/bundle"
	"xdao.co/unf/storage/testkit"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

func putReport(t *testing.T, cas storage.CAS, csv string) cid.Cid {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(csv), table.DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	r, err := dataset.Compute(context.Background(), tbl, unf.DefaultConfig(), dataset.Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	id, err := dataset.Publish(context.Background(), cas, r)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	return id
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cas := testkit.NewMemCAS()
	id1 := putReport(t, cas, "a\n1\n2\n")
	id2 := putReport(t, cas, "b\nx\ny\n")

	opts := bundle.ExportOptions{
		IncludeIndex: true,
		Labels:       map[string]cid.Cid{"first.csv": id1, "second.csv": id2},
	}
	var outA, outB bytes.Buffer
	if err := bundle.Export(ctx, &outA, cas, []cid.Cid{id2, id1, id2}, opts); err != nil {
		t.Fatal(err)
	}
	if err := bundle.Export(ctx, &outB, cas, []cid.Cid{id1, id2}, opts); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testkit.NewMemCAS()
	id := putReport(t, src, "a,b\n1,x\n")

	var buf bytes.Buffer
	if err := bundle.Export(ctx, &buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true, Validate: dataset.ValidateCanonical}); err != nil {
		t.Fatal(err)
	}

	dst := testkit.NewMemCAS()
	got, err := bundle.Import(ctx, bytes.NewReader(buf.Bytes()), dst, bundle.ImportOptions{Validate: dataset.ValidateCanonical})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Equals(id) {
		t.Fatalf("imported = %v, want [%s]", got, id)
	}
	if _, err := dataset.Fetch(ctx, dst, id); err != nil {
		t.Fatalf("Fetch after import: %v", err)
	}
}

func TestBundle_ExportRejectsUnknownLabelTarget(t *testing.T) {
	cas := testkit.NewMemCAS()
	id := putReport(t, cas, "a\n1\n")
	other, _ := cidutil.Sum([]byte("other"))
	opts := bundle.ExportOptions{IncludeIndex: true, Labels: map[string]cid.Cid{"x": other}}
	if err := bundle.Export(context.Background(), &bytes.Buffer{}, cas, []cid.Cid{id}, opts); err == nil {
		t.Fatalf("expected error for label naming an unexported report")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	other, err := cidutil.Sum([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	b := makeDeterministicTar(t, "reports/"+other.String()+".json", good)
	_, err = bundle.Import(context.Background(), bytes.NewReader(b), testkit.NewMemCAS(), bundle.ImportOptions{})
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportValidates(t *testing.T) {
	payload := []byte("not a report")
	id, _ := cidutil.Sum(payload)
	b := makeDeterministicTar(t, "reports/"+id.String()+".json", payload)

	dst := testkit.NewMemCAS()
	if _, err := bundle.Import(context.Background(), bytes.NewReader(b), dst, bundle.ImportOptions{Validate: dataset.ValidateCanonical}); err == nil {
		t.Fatalf("expected validation error")
	}
	if ok, _ := dst.Has(context.Background(), id); ok {
		t.Fatalf("rejected payload was stored")
	}
}

func TestBundle_ImportUnknownEntries(t *testing.T) {
	b := makeDeterministicTar(t, "notes.txt", []byte("hi"))
	ctx := context.Background()
	if _, err := bundle.Import(ctx, bytes.NewReader(b), testkit.NewMemCAS(), bundle.ImportOptions{}); err == nil {
		t.Fatalf("expected unknown entry error")
	}
	got, err := bundle.Import(ctx, bytes.NewReader(b), testkit.NewMemCAS(), bundle.ImportOptions{IgnoreUnknown: true})
	if err != nil || len(got) != 0 {
		t.Fatalf("IgnoreUnknown: got %v, %v", got, err)
	}

	traversal := makeDeterministicTar(t, "reports/../x.json", []byte("x"))
	if _, err := bundle.Import(ctx, bytes.NewReader(traversal), testkit.NewMemCAS(), bundle.ImportOptions{IgnoreUnknown: true}); err == nil {
		t.Fatalf("expected invalid path error")
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
