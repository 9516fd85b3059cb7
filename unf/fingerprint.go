package unf

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Fingerprint is a computed UNF: the parameters it was computed under and
// the truncated SHA-256 digest. Its canonical text form is String().
type Fingerprint struct {
	Config Config
	Digest []byte
}

// String renders UNF:6[:params]:<base64 digest>.
func (f Fingerprint) String() string {
	return f.Config.Header() + base64.StdEncoding.EncodeToString(f.Digest)
}

// Equal reports whether f and g render identically.
func (f Fingerprint) Equal(g Fingerprint) bool {
	return f.Config == g.Config && bytes.Equal(f.Digest, g.Digest)
}

// IsZero reports whether f was never computed.
func (f Fingerprint) IsZero() bool {
	return len(f.Digest) == 0
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	if f.IsZero() {
		return nil, newError(KindMalformedFingerprint, "UNF-FMT-005", "empty fingerprint digest")
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with ParseFingerprint's
// strictness.
func (f *Fingerprint) UnmarshalText(b []byte) error {
	parsed, err := ParseFingerprint(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Compute fingerprints one vector. Values are encoded in the order given.
func Compute(values []Value, cfg Config) (Fingerprint, error) {
	stream, err := EncodeVector(values, cfg)
	if err != nil {
		return Fingerprint{}, err
	}
	return digest(stream, cfg), nil
}

// ComputeAny adapts native Go values with FromAny and fingerprints them.
func ComputeAny(cfg Config, xs ...any) (Fingerprint, error) {
	values, err := Values(xs...)
	if err != nil {
		return Fingerprint{}, err
	}
	return Compute(values, cfg)
}

func digest(stream []byte, cfg Config) Fingerprint {
	sum := sha256.Sum256(stream)
	return Fingerprint{Config: cfg, Digest: truncateDigest(sum[:], cfg.HashBits)}
}

// truncateDigest keeps the leading bits of sum. When bits is not a multiple
// of eight, the unused low-order bits of the final byte are cleared.
func truncateDigest(sum []byte, bits int) []byte {
	n := (bits + 7) / 8
	out := make([]byte, n)
	copy(out, sum[:n])
	if r := bits % 8; r != 0 {
		out[n-1] &= byte(0xFF << (8 - r))
	}
	return out
}

// ParseFingerprint parses the canonical text form. It rejects anything
// Compute could not have produced: other versions, default-valued or
// misordered parameters, non-canonical base64, a digest of the wrong length,
// and set bits beyond HashBits.
func ParseFingerprint(s string) (Fingerprint, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || parts[0] != "UNF" {
		return Fingerprint{}, newError(KindMalformedFingerprint, "UNF-FMT-001", fmt.Sprintf("not a UNF fingerprint: %q", s))
	}
	if parts[1] != strconv.Itoa(Version) {
		return Fingerprint{}, newError(KindMalformedFingerprint, "UNF-FMT-002", fmt.Sprintf("unsupported UNF version %q", parts[1]))
	}

	cfg := DefaultConfig()
	switch len(parts) {
	case 3:
	case 4:
		var err error
		cfg, err = parseParams(parts[2])
		if err != nil {
			return Fingerprint{}, err
		}
	default:
		return Fingerprint{}, newError(KindMalformedFingerprint, "UNF-FMT-001", fmt.Sprintf("too many fields in %q", s))
	}

	enc := parts[len(parts)-1]
	raw, err := base64.StdEncoding.Strict().DecodeString(enc)
	if err != nil || base64.StdEncoding.EncodeToString(raw) != enc {
		return Fingerprint{}, wrapError(KindMalformedFingerprint, "UNF-FMT-004", fmt.Sprintf("invalid base64 digest %q", enc), err)
	}
	if len(raw) != cfg.digestLen() {
		return Fingerprint{}, newError(KindMalformedFingerprint, "UNF-FMT-005",
			fmt.Sprintf("digest is %d bytes, H%d needs %d", len(raw), cfg.HashBits, cfg.digestLen()))
	}
	if r := cfg.HashBits % 8; r != 0 && raw[len(raw)-1]&byte(0xFF>>r) != 0 {
		return Fingerprint{}, newError(KindMalformedFingerprint, "UNF-FMT-006",
			fmt.Sprintf("digest has bits set beyond H%d", cfg.HashBits))
	}
	return Fingerprint{Config: cfg, Digest: raw}, nil
}

func parseParams(p string) (Config, error) {
	cfg := DefaultConfig()
	bad := func(msg string) (Config, error) {
		return Config{}, newError(KindMalformedFingerprint, "UNF-FMT-003", fmt.Sprintf("params %q: %s", p, msg))
	}
	if p == "" {
		return bad("empty parameter field")
	}
	const order = "NXHT"
	last := -1
	for _, tok := range strings.Split(p, ",") {
		if tok == "" {
			return bad("empty token")
		}
		pos := strings.IndexByte(order, tok[0])
		if pos < 0 {
			return bad(fmt.Sprintf("unknown token %q", tok))
		}
		if pos <= last {
			return bad(fmt.Sprintf("token %q out of order", tok))
		}
		last = pos
		if tok[0] == 'T' {
			if tok != "T" {
				return bad(fmt.Sprintf("token %q takes no value", tok))
			}
			cfg.Truncate = true
			continue
		}
		n, ok := canonicalInt(tok[1:])
		if !ok {
			return bad(fmt.Sprintf("token %q has a non-canonical number", tok))
		}
		switch tok[0] {
		case 'N':
			if n == DefaultPrecision {
				return bad("N7 is the default and must be omitted")
			}
			cfg.Precision = n
		case 'X':
			if n == DefaultMaxChars {
				return bad("X128 is the default and must be omitted")
			}
			cfg.MaxChars = n
		case 'H':
			if n == DefaultHashBits {
				return bad("H128 is the default and must be omitted")
			}
			cfg.HashBits = n
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, wrapError(KindMalformedFingerprint, "UNF-FMT-003", fmt.Sprintf("params %q: %v", p, err), err)
	}
	return cfg, nil
}

func canonicalInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}
