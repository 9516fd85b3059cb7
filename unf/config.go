package unf

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the only UNF version this package produces or accepts.
const Version = 6

const (
	DefaultPrecision = 7
	DefaultMaxChars  = 128
	DefaultHashBits  = 128
)

// Config carries the UNF parameters. The zero value is not valid; start from
// DefaultConfig or NewConfig.
type Config struct {
	// Precision is the number of significant decimal digits kept for numbers.
	Precision int
	// MaxChars is the number of Unicode code points kept for strings.
	MaxChars int
	// HashBits is the number of leading SHA-256 bits kept in the digest.
	HashBits int
	// Truncate rounds numbers toward zero instead of half-to-even.
	Truncate bool
}

// Option adjusts a Config under construction.
type Option func(*Config)

func WithPrecision(n int) Option { return func(c *Config) { c.Precision = n } }

func WithMaxChars(n int) Option { return func(c *Config) { c.MaxChars = n } }

func WithHashBits(n int) Option { return func(c *Config) { c.HashBits = n } }

func WithTruncate(t bool) Option { return func(c *Config) { c.Truncate = t } }

// DefaultConfig returns N7, X128, H128, rounding.
func DefaultConfig() Config {
	return Config{
		Precision: DefaultPrecision,
		MaxChars:  DefaultMaxChars,
		HashBits:  DefaultHashBits,
	}
}

// NewConfig applies opts over DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ValidHashBits reports whether n is an accepted digest length.
func ValidHashBits(n int) bool {
	switch n {
	case 128, 192, 196, 256:
		return true
	default:
		return false
	}
}

// Validate enforces the parameter ranges.
func (c Config) Validate() error {
	if c.Precision < 1 {
		return newError(KindConfig, "UNF-CFG-001", fmt.Sprintf("precision must be >= 1, got %d", c.Precision))
	}
	if c.MaxChars < 1 {
		return newError(KindConfig, "UNF-CFG-002", fmt.Sprintf("max_chars must be >= 1, got %d", c.MaxChars))
	}
	if !ValidHashBits(c.HashBits) {
		return newError(KindConfig, "UNF-CFG-003", fmt.Sprintf("hash_bits must be one of 128, 192, 196, 256, got %d", c.HashBits))
	}
	return nil
}

// IsDefault reports whether every parameter has its default value.
func (c Config) IsDefault() bool {
	return c == DefaultConfig()
}

// Params renders the non-default parameters in wire order (N, X, H, T),
// comma joined. It returns "" for the default config.
func (c Config) Params() string {
	var params []string
	if c.Precision != DefaultPrecision {
		params = append(params, "N"+strconv.Itoa(c.Precision))
	}
	if c.MaxChars != DefaultMaxChars {
		params = append(params, "X"+strconv.Itoa(c.MaxChars))
	}
	if c.HashBits != DefaultHashBits {
		params = append(params, "H"+strconv.Itoa(c.HashBits))
	}
	if c.Truncate {
		params = append(params, "T")
	}
	return strings.Join(params, ",")
}

// Header returns the fingerprint prefix including the trailing colon, e.g.
// "UNF:6:" or "UNF:6:N9,X256,H256:".
func (c Config) Header() string {
	p := c.Params()
	if p == "" {
		return "UNF:6:"
	}
	return "UNF:6:" + p + ":"
}

func (c Config) digestLen() int {
	return (c.HashBits + 7) / 8
}
