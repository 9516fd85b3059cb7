package unf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// NormalizeFloat canonicalizes f. The float enters as its shortest
// round-trip decimal literal; rounding then happens in decimal arithmetic.
func NormalizeFloat(f float64, cfg Config) ([]byte, error) {
	return normalizeNumeric(Float(f).num, cfg)
}

// NormalizeInt canonicalizes an integer.
func NormalizeInt(i int64, cfg Config) ([]byte, error) {
	return normalizeNumeric(apd.New(i, 0), cfg)
}

// NormalizeDecimal canonicalizes an exact decimal. d is not modified.
func NormalizeDecimal(d *apd.Decimal, cfg Config) ([]byte, error) {
	if d == nil {
		return nil, newError(KindUnsupportedType, "UNF-TYPE-002", "nil decimal")
	}
	return normalizeNumeric(d, cfg)
}

// NormalizeBoolean canonicalizes b as the number 1 or 0.
func NormalizeBoolean(b bool, cfg Config) []byte {
	if b {
		return []byte("+1.e+")
	}
	return []byte("+0.e+")
}

// normalizeNumeric renders [sign]d.ddd e[sign]exp after rounding to
// cfg.Precision significant digits. Trailing fraction zeros are dropped but
// the point is kept; a zero exponent renders as the bare sign.
func normalizeNumeric(d *apd.Decimal, cfg Config) ([]byte, error) {
	switch d.Form {
	case apd.NaN, apd.NaNSignaling:
		return []byte("+nan"), nil
	case apd.Infinite:
		if d.Negative {
			return []byte("-inf"), nil
		}
		return []byte("+inf"), nil
	}
	if d.IsZero() {
		if d.Negative {
			return []byte("-0.e+"), nil
		}
		return []byte("+0.e+"), nil
	}

	p := cfg.Precision
	if p > math.MaxInt32 {
		p = math.MaxInt32
	}
	ctx := apd.BaseContext.WithPrecision(uint32(p))
	ctx.Rounding = apd.RoundHalfEven
	if cfg.Truncate {
		ctx.Rounding = apd.RoundDown
	}
	var r apd.Decimal
	if _, err := ctx.Round(&r, d); err != nil {
		return nil, wrapError(KindNumeric, "UNF-NUM-001", fmt.Sprintf("cannot round %s to %d digits", d.String(), cfg.Precision), err)
	}

	coeff := r.Coeff.String()
	exp := int64(r.Exponent) + int64(len(coeff)) - 1
	digits := strings.TrimRight(coeff, "0")

	var b strings.Builder
	b.Grow(len(digits) + 24)
	if r.Negative {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	b.WriteByte(digits[0])
	b.WriteByte('.')
	b.WriteString(digits[1:])
	b.WriteByte('e')
	switch {
	case exp < 0:
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(-exp, 10))
	case exp > 0:
		b.WriteByte('+')
		b.WriteString(strconv.FormatInt(exp, 10))
	default:
		b.WriteByte('+')
	}
	return []byte(b.String()), nil
}
