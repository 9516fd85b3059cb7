package attest

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xdao.co/unf/dataset"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func reportBytes(t *testing.T, src string) []byte {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(src), table.DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	source, err := dataset.SourceOf("in.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("SourceOf: %v", err)
	}
	r, err := dataset.Compute(context.Background(), tbl, unf.DefaultConfig(), dataset.Options{Source: source})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b, err := r.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	return b
}

func mustKey(t *testing.T, alg string) *PrivateKey {
	t.Helper()
	k, err := GenerateKey(alg, &deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateKey(%s): %v", alg, err)
	}
	return k
}

func TestSignVerify_AllAlgorithms(t *testing.T) {
	report := reportBytes(t, "a,b\n1,x\n2,y\n")
	for _, alg := range []string{AlgEd25519, AlgDilithium3} {
		for _, hashAlg := range []string{HashSHA256, HashSHA512, HashSHA3256} {
			key := mustKey(t, alg)
			att, err := Sign(report, key, SignOptions{
				HashAlg:  hashAlg,
				Issuer:   "lab-a",
				IssuedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			})
			if err != nil {
				t.Fatalf("%s/%s Sign: %v", alg, hashAlg, err)
			}
			a, err := Verify(att, report)
			if err != nil {
				t.Fatalf("%s/%s Verify: %v", alg, hashAlg, err)
			}
			if a.Issuer != "lab-a" || a.SigAlg != alg || a.HashAlg != hashAlg || a.IssuerKey != key.IssuerKey() {
				t.Fatalf("%s/%s parsed = %+v", alg, hashAlg, a)
			}
		}
	}
}

func TestSign_IsCanonicalAndDeterministicForEd25519(t *testing.T) {
	report := reportBytes(t, "a\n1\n")
	key := mustKey(t, AlgEd25519)
	a1, err := Sign(report, key, SignOptions{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	a2, _ := Sign(report, key, SignOptions{})
	if !bytes.Equal(a1, a2) {
		t.Fatalf("ed25519 attestation not deterministic")
	}
	if bytes.HasSuffix(a1, []byte("\n")) {
		t.Fatalf("attestation must not end with a newline")
	}
	if !bytes.HasPrefix(a1, []byte(Preamble+"\nMETA\n")) {
		t.Fatalf("unexpected head: %q", a1[:40])
	}
	if _, err := Parse(a1); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestVerify_RejectsOtherReport(t *testing.T) {
	report := reportBytes(t, "a\n1\n")
	other := reportBytes(t, "a\n2\n")
	att, err := Sign(report, mustKey(t, AlgEd25519), SignOptions{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Verify(att, other); !errors.Is(err, ErrSubjectMismatch) {
		t.Fatalf("expected ErrSubjectMismatch, got %v", err)
	}
}

func TestVerify_RejectsTamperedClaims(t *testing.T) {
	report := reportBytes(t, "a\n1\n")
	att, err := Sign(report, mustKey(t, AlgEd25519), SignOptions{Issuer: "lab-a"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := bytes.Replace(att, []byte("Issuer: lab-a"), []byte("Issuer: lab-b"), 1)
	if _, err := Verify(tampered, report); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_RejectsForeignKey(t *testing.T) {
	report := reportBytes(t, "a\n1\n")
	att, err := Sign(report, mustKey(t, AlgEd25519), SignOptions{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	other, err := NewPrivateKey(AlgEd25519, bytes.Repeat([]byte{9}, SeedSize))
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	a, err := ParseAttestation(att)
	if err != nil {
		t.Fatalf("ParseAttestation: %v", err)
	}
	swapped := bytes.Replace(att, []byte(a.IssuerKey), []byte(other.IssuerKey()), 1)
	if _, err := Verify(swapped, report); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParse_RejectsNonCanonical(t *testing.T) {
	report := reportBytes(t, "a\n1\n")
	att, err := Sign(report, mustKey(t, AlgEd25519), SignOptions{Issuer: "x"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	cases := map[string][]byte{
		"trailing newline": append(append([]byte(nil), att...), '\n'),
		"crlf":             bytes.ReplaceAll(att, []byte("\n"), []byte("\r\n")),
		"double blank":     bytes.Replace(att, []byte("\n\nSUBJECT"), []byte("\n\n\nSUBJECT"), 1),
		"no preamble":      bytes.TrimPrefix(att, []byte(Preamble+"\n")),
		"trailing space":   bytes.Replace(att, []byte("Issuer: x"), []byte("Issuer: x "), 1),
		"unsorted keys":    bytes.Replace(att, []byte("Spec: "+SpecName+"\nVersion: 1"), []byte("Version: 1\nSpec: "+SpecName), 1),
	}
	for name, in := range cases {
		if _, err := ParseAttestation(in); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestSign_RejectsBadInput(t *testing.T) {
	key := mustKey(t, AlgEd25519)
	if _, err := Sign([]byte("not a report"), key, SignOptions{}); err == nil {
		t.Fatalf("expected error for non-report bytes")
	}
	report := reportBytes(t, "a\n1\n")
	if _, err := Sign(report, key, SignOptions{HashAlg: "md5"}); err == nil {
		t.Fatalf("expected error for unsupported hash")
	}
	if _, err := Sign(report, nil, SignOptions{}); err == nil {
		t.Fatalf("expected error for nil key")
	}
}

func TestPrivateKey_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "issuer.key")
	key := mustKey(t, AlgDilithium3)
	if err := SavePrivateKey(path, key, false); err != nil {
		t.Fatalf("SavePrivateKey: %v", err)
	}
	if err := SavePrivateKey(path, key, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	loaded, err := LoadPrivateKey(path)
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}
	if loaded.IssuerKey() != key.IssuerKey() {
		t.Fatalf("loaded key differs")
	}
	if _, err := ParsePrivateKey("rsa:00"); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
	if _, err := NewPrivateKey(AlgEd25519, []byte{1, 2}); err == nil {
		t.Fatalf("expected error for short seed")
	}
}
