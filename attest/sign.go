package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/dataset"
)

const (
	HashSHA256  = "sha256"
	HashSHA512  = "sha512"
	HashSHA3256 = "sha3-256"
)

// ErrSignatureInvalid means the signature does not verify under Issuer-Key.
var ErrSignatureInvalid = errors.New("signature invalid")

// ErrSubjectMismatch means the attestation does not describe the report it
// was checked against.
var ErrSubjectMismatch = errors.New("attestation subject does not match report")

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case HashSHA256:
		s := sha256.Sum256(message)
		return s[:], nil
	case HashSHA512:
		s := sha512.Sum512(message)
		return s[:], nil
	case HashSHA3256:
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// SignOptions carries the optional claims of an attestation.
type SignOptions struct {
	// HashAlg defaults to sha256.
	HashAlg  string
	Issuer   string
	IssuedAt time.Time
}

// Attestation is a parsed, canonical attestation.
type Attestation struct {
	Raw       []byte
	Signed    []byte
	ReportCID string
	SourceCID string
	UNF       string
	Issuer    string
	IssuedAt  time.Time
	IssuerKey string
	HashAlg   string
	SigAlg    string
	Signature []byte
}

// Sign attests the canonical report bytes with key.
func Sign(reportBytes []byte, key *PrivateKey, opts SignOptions) ([]byte, error) {
	if key == nil {
		return nil, errors.New("missing private key")
	}
	r, err := dataset.ParseReport(reportBytes)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	if err := dataset.Verify(r); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	hashAlg := opts.HashAlg
	if hashAlg == "" {
		hashAlg = HashSHA256
	}
	if _, err := digestFor(hashAlg, nil); err != nil {
		return nil, err
	}

	doc := Document{
		Meta: map[string]string{
			"Spec":    SpecName,
			"Version": "1",
		},
		Subject: map[string]string{
			"Report-CID": cidutil.String(reportBytes),
			"UNF":        r.UNF,
		},
		Claims: map[string]string{},
		Crypto: map[string]string{
			"Hash-Alg":      hashAlg,
			"Issuer-Key":    key.IssuerKey(),
			"Signature-Alg": key.Alg,
		},
	}
	if r.Source != nil {
		doc.Subject["Source-CID"] = r.Source.CID
	}
	if opts.Issuer != "" {
		doc.Claims["Issuer"] = opts.Issuer
	}
	if !opts.IssuedAt.IsZero() {
		doc.Claims["Issued-At"] = opts.IssuedAt.UTC().Format(time.RFC3339)
	}

	_, signed, err := Render(doc)
	if err != nil {
		return nil, err
	}
	digest, err := digestFor(hashAlg, signed)
	if err != nil {
		return nil, err
	}
	var sig []byte
	switch key.Alg {
	case AlgEd25519:
		sig = ed25519.Sign(key.ed, digest)
	case AlgDilithium3:
		sig = make([]byte, mode3.SignatureSize)
		mode3.SignTo(key.dil, digest, sig)
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", key.Alg)
	}
	doc.Crypto["Signature"] = base64.StdEncoding.EncodeToString(sig)

	out, _, err := Render(doc)
	return out, err
}

// ParseAttestation parses canonical attestation bytes and checks the fixed
// fields. It does not verify the signature.
func ParseAttestation(data []byte) (*Attestation, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if doc.Meta["Spec"] != SpecName {
		return nil, fmt.Errorf("unsupported Spec %q", doc.Meta["Spec"])
	}
	if v, err := strconv.Atoi(doc.Meta["Version"]); err != nil || v != 1 {
		return nil, fmt.Errorf("unsupported Version %q", doc.Meta["Version"])
	}
	if err := onlyKeys(doc.Meta, "Spec", "Version"); err != nil {
		return nil, fmt.Errorf("META: %w", err)
	}
	if err := onlyKeys(doc.Subject, "Report-CID", "Source-CID", "UNF"); err != nil {
		return nil, fmt.Errorf("SUBJECT: %w", err)
	}
	if err := onlyKeys(doc.Claims, "Issued-At", "Issuer"); err != nil {
		return nil, fmt.Errorf("CLAIMS: %w", err)
	}
	if err := onlyKeys(doc.Crypto, "Hash-Alg", "Issuer-Key", "Signature", "Signature-Alg"); err != nil {
		return nil, fmt.Errorf("CRYPTO: %w", err)
	}

	_, signed, err := Render(doc)
	if err != nil {
		return nil, err
	}
	a := &Attestation{
		Raw:       append([]byte(nil), data...),
		Signed:    append([]byte(nil), signed...),
		ReportCID: doc.Subject["Report-CID"],
		SourceCID: doc.Subject["Source-CID"],
		UNF:       doc.Subject["UNF"],
		Issuer:    doc.Claims["Issuer"],
		IssuerKey: doc.Crypto["Issuer-Key"],
		HashAlg:   doc.Crypto["Hash-Alg"],
		SigAlg:    doc.Crypto["Signature-Alg"],
	}
	if a.ReportCID == "" || a.UNF == "" {
		return nil, errors.New("SUBJECT: Report-CID and UNF are required")
	}
	if _, err := cidutil.Parse(a.ReportCID); err != nil {
		return nil, fmt.Errorf("SUBJECT: Report-CID: %w", err)
	}
	if s := doc.Claims["Issued-At"]; s != "" {
		if a.IssuedAt, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("CLAIMS: Issued-At: %w", err)
		}
	}
	for _, k := range []string{"Hash-Alg", "Issuer-Key", "Signature", "Signature-Alg"} {
		if doc.Crypto[k] == "" {
			return nil, fmt.Errorf("CRYPTO: missing %s", k)
		}
	}
	if a.Signature, err = base64.StdEncoding.DecodeString(doc.Crypto["Signature"]); err != nil {
		return nil, fmt.Errorf("CRYPTO: invalid signature base64: %w", err)
	}
	return a, nil
}

func onlyKeys(pairs map[string]string, allowed ...string) error {
	for k := range pairs {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unknown key %q", k)
		}
	}
	return nil
}

// VerifySignature checks the signature over the signed scope.
func (a *Attestation) VerifySignature() error {
	alg, pub, err := parseIssuerKey(a.IssuerKey)
	if err != nil {
		return err
	}
	if alg != a.SigAlg {
		return errors.New("Issuer-Key alg does not match Signature-Alg")
	}
	digest, err := digestFor(a.HashAlg, a.Signed)
	if err != nil {
		return err
	}
	switch alg {
	case AlgEd25519:
		if len(a.Signature) != ed25519.SignatureSize {
			return errors.New("invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, a.Signature) {
			return ErrSignatureInvalid
		}
	case AlgDilithium3:
		if len(a.Signature) != mode3.SignatureSize {
			return errors.New("invalid dilithium3 signature length")
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, a.Signature) {
			return ErrSignatureInvalid
		}
	}
	return nil
}

// Verify parses attBytes, checks that it names exactly reportBytes (by CID,
// dataset UNF and source CID), that the report is self-consistent, and that
// the signature verifies.
func Verify(attBytes, reportBytes []byte) (*Attestation, error) {
	a, err := ParseAttestation(attBytes)
	if err != nil {
		return nil, err
	}
	if got := cidutil.String(reportBytes); got != a.ReportCID {
		return nil, fmt.Errorf("%w: report cid %s, attested %s", ErrSubjectMismatch, got, a.ReportCID)
	}
	r, err := dataset.ParseReport(reportBytes)
	if err != nil {
		return nil, err
	}
	if err := dataset.Verify(r); err != nil {
		return nil, err
	}
	if r.UNF != a.UNF {
		return nil, fmt.Errorf("%w: report unf %s, attested %s", ErrSubjectMismatch, r.UNF, a.UNF)
	}
	var src string
	if r.Source != nil {
		src = r.Source.CID
	}
	if src != a.SourceCID {
		return nil, fmt.Errorf("%w: source cid %q, attested %q", ErrSubjectMismatch, src, a.SourceCID)
	}
	if err := a.VerifySignature(); err != nil {
		return nil, err
	}
	return a, nil
}
