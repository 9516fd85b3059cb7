package casconfig_test

import (
	"context"
	"path/filepath"
	"testing"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casconfig"
	"xdao.co/unf/storage/casregistry"
	_ "xdao.co/unf/storage/localfs"
)

func TestValidate(t *testing.T) {
	cases := []casconfig.Config{
		{},
		{Backends: []casconfig.BackendConfig{{}}},
		{Backends: []casconfig.BackendConfig{{Name: "localfs"}, {Name: "localfs"}}},
		{WritePolicy: "some", Backends: []casconfig.BackendConfig{{Name: "localfs"}}},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	ok := casconfig.Config{Backends: []casconfig.BackendConfig{{Name: "localfs"}, {Name: "localfs", ID: "mirror"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestOpen_Policies(t *testing.T) {
	dir := t.TempDir()
	backends := []casconfig.BackendConfig{
		{Name: "localfs", ID: "primary", Options: map[string]string{"dir": filepath.Join(dir, "a")}},
		{Name: "localfs", ID: "mirror", Options: map[string]string{"dir": filepath.Join(dir, "b")}},
	}

	first, closeFirst, err := casconfig.Config{Backends: backends}.Open(casregistry.UsageCLI, "mirror")
	if err != nil {
		t.Fatalf("Open(first): %v", err)
	}
	defer closeFirst()
	multi, ok := first.(storage.MultiCAS)
	if !ok || len(multi.Adapters) != 2 {
		t.Fatalf("expected MultiCAS with 2 adapters, got %T", first)
	}

	all, closeAll, err := casconfig.Config{WritePolicy: casconfig.WriteAll, Backends: backends}.Open(casregistry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open(all): %v", err)
	}
	defer closeAll()
	rep, ok := all.(storage.ReplicatingCAS)
	if !ok {
		t.Fatalf("expected ReplicatingCAS, got %T", all)
	}

	ctx := context.Background()
	id, per, err := rep.PutAll(ctx, []byte("report"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(per) != 2 || per["primary"] != id || per["mirror"] != id {
		t.Fatalf("per-backend CIDs: %v", per)
	}
	// The write reached the mirror, which the "first" view reads first.
	if ok, err := first.Has(ctx, id); err != nil || !ok {
		t.Fatalf("Has via first-policy view: ok=%v err=%v", ok, err)
	}

	if _, _, err := (casconfig.Config{Backends: backends}).Open(casregistry.UsageCLI, "nope"); err == nil {
		t.Fatalf("expected preferred backend error")
	}
	bad := []casconfig.BackendConfig{{Name: "localfs"}}
	if _, _, err := (casconfig.Config{Backends: bad}).Open(casregistry.UsageCLI, ""); err == nil {
		t.Fatalf("expected missing dir error")
	}
}
