package unf_test

import (
	"path/filepath"
	"testing"

	"xdao.co/unf/internal/vectors"
	"xdao.co/unf/unf"
)

func loadSuite(t *testing.T) *vectors.Suite {
	t.Helper()
	s, err := vectors.Load(filepath.Join("..", "testdata", "conformance", "unf-6", "vectors.json"))
	if err != nil {
		t.Fatalf("load vectors: %v", err)
	}
	if len(s.Vectors) == 0 || len(s.Combine) == 0 {
		t.Fatalf("vector suite is empty")
	}
	return s
}

func TestConformanceVectors_Compute(t *testing.T) {
	for _, v := range loadSuite(t).Vectors {
		fp, err := v.Compute()
		if err != nil {
			t.Fatalf("%s: Compute: %v", v.Name, err)
		}
		if got := fp.String(); got != v.UNF {
			t.Fatalf("%s: got %s want %s", v.Name, got, v.UNF)
		}

		// The stored string must be canonical and round-trip through the parser.
		parsed, err := unf.ParseFingerprint(v.UNF)
		if err != nil {
			t.Fatalf("%s: ParseFingerprint: %v", v.Name, err)
		}
		if !parsed.Equal(fp) {
			t.Fatalf("%s: parsed fingerprint differs from computed", v.Name)
		}
	}
}

func TestConformanceVectors_Combine(t *testing.T) {
	for _, c := range loadSuite(t).Combine {
		fp, err := c.Compute()
		if err != nil {
			t.Fatalf("%s: Combine: %v", c.Name, err)
		}
		if got := fp.String(); got != c.UNF {
			t.Fatalf("%s: got %s want %s", c.Name, got, c.UNF)
		}
	}
}

func TestConformanceVectors_CombineInputsAreVectorOutputs(t *testing.T) {
	s := loadSuite(t)
	known := make(map[string]bool)
	for _, v := range s.Vectors {
		known[v.UNF] = true
	}
	for _, c := range s.Combine {
		known[c.UNF] = true
	}
	for _, c := range s.Combine {
		for _, in := range c.Inputs {
			if !known[in] {
				t.Fatalf("%s: input %s is not produced by any vector in the suite", c.Name, in)
			}
		}
	}
}
