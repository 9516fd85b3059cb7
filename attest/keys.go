package attest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// SeedSize is the length of the secret seed both algorithms derive keys from.
const SeedSize = 32

// PrivateKey is a signing key derived from a 32-byte seed.
type PrivateKey struct {
	Alg  string
	seed []byte
	ed   ed25519.PrivateKey
	dil  *mode3.PrivateKey
	pub  []byte
}

// NewPrivateKey derives the alg key for seed.
func NewPrivateKey(alg string, seed []byte) (*PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	k := &PrivateKey{Alg: alg, seed: append([]byte(nil), seed...)}
	switch alg {
	case AlgEd25519:
		k.ed = ed25519.NewKeyFromSeed(seed)
		k.pub = k.ed.Public().(ed25519.PublicKey)
	case AlgDilithium3:
		var s [mode3.SeedSize]byte
		copy(s[:], seed)
		pk, sk := mode3.NewKeyFromSeed(&s)
		k.dil = sk
		k.pub = pk.Bytes()
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", alg)
	}
	return k, nil
}

// GenerateKey draws a fresh seed from rand.
func GenerateKey(alg string, rand io.Reader) (*PrivateKey, error) {
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return NewPrivateKey(alg, seed)
}

// IssuerKey encodes the public half as "<alg>:<base64>".
func (k *PrivateKey) IssuerKey() string {
	return k.Alg + ":" + base64.StdEncoding.EncodeToString(k.pub)
}

// MarshalText renders the key file form "<alg>:<hex seed>".
func (k *PrivateKey) MarshalText() ([]byte, error) {
	return []byte(k.Alg + ":" + hex.EncodeToString(k.seed)), nil
}

// ParsePrivateKey reads the MarshalText form.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	alg, seedHex, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return nil, errors.New("private key must be <alg>:<hex seed>")
	}
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("private key seed: %w", err)
	}
	return NewPrivateKey(alg, seed)
}

// LoadPrivateKey reads a key file.
func LoadPrivateKey(path string) (*PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := ParsePrivateKey(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// SavePrivateKey writes k to path with owner-only permissions. An existing
// file is only replaced when overwrite is set.
func SavePrivateKey(path string, k *PrivateKey, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	text, _ := k.MarshalText()
	if _, err := file.Write(append(text, '\n')); err != nil {
		return err
	}
	return file.Close()
}

// parseIssuerKey decodes "<alg>:<base64>" and checks the key length.
func parseIssuerKey(s string) (string, []byte, error) {
	alg, enc, ok := strings.Cut(s, ":")
	if !ok {
		return "", nil, errors.New("invalid Issuer-Key encoding")
	}
	pub, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("invalid issuer key base64: %w", err)
	}
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, errors.New("invalid ed25519 public key length")
		}
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("unsupported issuer key algorithm %q", alg)
	}
	return alg, pub, nil
}
