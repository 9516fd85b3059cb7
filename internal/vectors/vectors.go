// Package vectors reads and writes the UNF conformance vector suite under
// testdata/conformance.
package vectors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"xdao.co/unf/unf"
)

// SuiteName identifies the vector format.
const SuiteName = "unf-6"

type Suite struct {
	Suite   string        `json:"suite"`
	Vectors []Vector      `json:"vectors"`
	Combine []CombineCase `json:"combine"`
}

type Config struct {
	Precision int  `json:"precision"`
	MaxChars  int  `json:"max_chars"`
	HashBits  int  `json:"hash_bits"`
	Truncate  bool `json:"truncate"`
}

// Vector is one fingerprinted value vector.
type Vector struct {
	Name   string  `json:"name"`
	Config Config  `json:"config"`
	Values []Value `json:"values"`
	UNF    string  `json:"unf"`
}

// CombineCase is one Combine invocation over fingerprint strings.
type CombineCase struct {
	Name   string   `json:"name"`
	Config Config   `json:"config"`
	Inputs []string `json:"inputs"`
	UNF    string   `json:"unf"`
}

// Value is a typed literal. Numeric literals are exact decimals; datetimes
// are RFC 3339.
type Value struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

func ConfigOf(c unf.Config) Config {
	return Config{Precision: c.Precision, MaxChars: c.MaxChars, HashBits: c.HashBits, Truncate: c.Truncate}
}

func (c Config) UNF() (unf.Config, error) {
	return unf.NewConfig(
		unf.WithPrecision(c.Precision),
		unf.WithMaxChars(c.MaxChars),
		unf.WithHashBits(c.HashBits),
		unf.WithTruncate(c.Truncate),
	)
}

// Decode builds the unf.Value described by v.
func (v Value) Decode() (unf.Value, error) {
	typ, ok := unf.ParseType(v.Type)
	if !ok {
		return unf.Value{}, fmt.Errorf("unknown value type %q", v.Type)
	}
	switch typ {
	case unf.TypeMissing:
		return unf.Missing(), nil
	case unf.TypeNumeric:
		return unf.Decimal(v.Value)
	case unf.TypeText:
		return unf.Text(v.Value), nil
	case unf.TypeBoolean:
		switch v.Value {
		case "true":
			return unf.Bool(true), nil
		case "false":
			return unf.Bool(false), nil
		}
		return unf.Value{}, fmt.Errorf("invalid boolean %q", v.Value)
	case unf.TypeDate:
		t, err := time.Parse(time.DateOnly, v.Value)
		if err != nil {
			return unf.Value{}, err
		}
		return unf.DateValue(unf.DateOf(t)), nil
	case unf.TypeDateTime:
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return unf.Value{}, err
		}
		return unf.DateTime(t), nil
	}
	return unf.Value{}, fmt.Errorf("unhandled value type %q", v.Type)
}

// DecodeValues decodes every literal of the vector.
func (v Vector) DecodeValues() ([]unf.Value, error) {
	out := make([]unf.Value, len(v.Values))
	for i, lit := range v.Values {
		val, err := lit.Decode()
		if err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", v.Name, i, err)
		}
		out[i] = val
	}
	return out, nil
}

// Compute fingerprints the vector under its own config.
func (v Vector) Compute() (unf.Fingerprint, error) {
	cfg, err := v.Config.UNF()
	if err != nil {
		return unf.Fingerprint{}, fmt.Errorf("%s: %w", v.Name, err)
	}
	values, err := v.DecodeValues()
	if err != nil {
		return unf.Fingerprint{}, err
	}
	return unf.Compute(values, cfg)
}

// Compute combines the case inputs under its config.
func (c CombineCase) Compute() (unf.Fingerprint, error) {
	cfg, err := c.Config.UNF()
	if err != nil {
		return unf.Fingerprint{}, fmt.Errorf("%s: %w", c.Name, err)
	}
	return unf.Combine(c.Inputs, cfg)
}

func Load(path string) (*Suite, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.Suite != SuiteName {
		return nil, fmt.Errorf("%s: suite %q, want %q", path, s.Suite, SuiteName)
	}
	return &s, nil
}

// Marshal renders the suite the way it is stored on disk: two-space indent,
// non-ASCII left unescaped, trailing newline.
func Marshal(s *Suite) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
