package unf

import (
	"fmt"
	"testing"
)

const (
	fpA = "UNF:6:AvELPR5QTaBbnq6S22Msow=="
	fpB = "UNF:6:BT6LJzHn64qGKimvo6iCfA=="
	fpC = "UNF:6:p9eYYVryKIPLh19w6PWG0g=="
)

func TestCombine_Inputs(t *testing.T) {
	cfg := DefaultConfig()
	for i, c := range []struct {
		values []Value
		want   string
	}{
		{[]Value{Int(1), Int(2), Int(3)}, fpA},
		{[]Value{Int(4), Int(5), Int(6)}, fpB},
		{[]Value{Int(7), Int(8), Int(9)}, fpC},
	} {
		fp, err := Compute(c.values, cfg)
		if err != nil {
			t.Fatalf("%d: %v", i, err)
		}
		if fp.String() != c.want {
			t.Fatalf("%d: got %s want %s", i, fp, c.want)
		}
	}
}

func TestCombine_KnownValues(t *testing.T) {
	cfg := DefaultConfig()
	ab, err := Combine([]string{fpA, fpB}, cfg)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if ab.String() != "UNF:6:FIW9D0mSBOYa5z0uzbtt2g==" {
		t.Fatalf("combine(a,b) = %s", ab)
	}
	abc, _ := Combine([]string{fpA, fpB, fpC}, cfg)
	if abc.String() != "UNF:6:YK+HJp8M3qS6O5bXMabAEg==" {
		t.Fatalf("combine(a,b,c) = %s", abc)
	}

	// Combination is not associative: nesting changes the result.
	nested, _ := Combine([]string{ab.String(), fpC}, cfg)
	if nested.String() != "UNF:6:meZpEpRYDRPv4MSINW4+Hg==" {
		t.Fatalf("combine(combine(a,b),c) = %s", nested)
	}
	if nested.Equal(abc) {
		t.Fatalf("nested combination should differ from flat combination")
	}
}

func TestCombine_PermutationInvariant(t *testing.T) {
	cfg := DefaultConfig()
	inputs := []string{fpA, fpB, fpC, "UNF:6:H256:zetKKa8vNPES38aPJMHrFAbLfNlo4z10tIaEvrKNIbk="}
	want, err := Combine(inputs, cfg)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	count := 0
	permute(inputs, 0, func(p []string) {
		count++
		got, err := Combine(p, cfg)
		if err != nil {
			t.Fatalf("Combine(%v): %v", p, err)
		}
		if !got.Equal(want) {
			t.Fatalf("permutation %v: got %s want %s", p, got, want)
		}
	})
	if count != 24 {
		t.Fatalf("expected 24 permutations, saw %d", count)
	}
}

func permute(xs []string, k int, visit func([]string)) {
	if k == len(xs) {
		visit(append([]string(nil), xs...))
		return
	}
	for i := k; i < len(xs); i++ {
		xs[k], xs[i] = xs[i], xs[k]
		permute(xs, k+1, visit)
		xs[k], xs[i] = xs[i], xs[k]
	}
}

func TestCombine_DoesNotMutateInput(t *testing.T) {
	in := []string{fpC, fpA, fpB}
	if _, err := Combine(in, DefaultConfig()); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if in[0] != fpC || in[1] != fpA || in[2] != fpB {
		t.Fatalf("input slice reordered: %v", in)
	}
}

func TestCombine_Empty(t *testing.T) {
	fp, err := Combine(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Combine(nil): %v", err)
	}
	empty, _ := Compute(nil, DefaultConfig())
	if !fp.Equal(empty) {
		t.Fatalf("empty combination %s should equal empty vector %s", fp, empty)
	}
}

func TestCombine_RejectsMalformedInput(t *testing.T) {
	_, err := Combine([]string{fpA, "UNF:6:not base64!"}, DefaultConfig())
	if !IsKind(err, KindMalformedFingerprint) {
		t.Fatalf("expected MalformedFingerprint, got %v", err)
	}
	if got, want := err.Error()[:len("fingerprint 1:")], "fingerprint 1:"; got != want {
		t.Fatalf("error should name the index: %q", err.Error())
	}

	if _, err := Combine([]string{fpA}, Config{}); !IsKind(err, KindConfig) {
		t.Fatalf("expected Config error, got %v", err)
	}
}

func TestCombineFingerprints(t *testing.T) {
	cfg := DefaultConfig()
	var fps []Fingerprint
	for _, s := range []string{fpB, fpA} {
		fp, err := ParseFingerprint(s)
		if err != nil {
			t.Fatalf("ParseFingerprint: %v", err)
		}
		fps = append(fps, fp)
	}
	got, err := CombineFingerprints(fps, cfg)
	if err != nil {
		t.Fatalf("CombineFingerprints: %v", err)
	}
	if got.String() != "UNF:6:FIW9D0mSBOYa5z0uzbtt2g==" {
		t.Fatalf("got %s", got)
	}
}

func ExampleCombine() {
	a, _ := ComputeAny(DefaultConfig(), 1, 2, 3)
	b, _ := ComputeAny(DefaultConfig(), 4, 5, 6)
	fp, _ := Combine([]string{b.String(), a.String()}, DefaultConfig())
	fmt.Println(fp)
	// Output: UNF:6:FIW9D0mSBOYa5z0uzbtt2g==
}
