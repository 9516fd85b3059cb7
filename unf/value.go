package unf

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Type identifies which variant a Value holds. The set is closed.
type Type uint8

const (
	typeInvalid Type = iota
	TypeMissing
	TypeNumeric
	TypeText
	TypeBoolean
	TypeDate
	TypeDateTime
)

func (t Type) String() string {
	switch t {
	case TypeMissing:
		return "missing"
	case TypeNumeric:
		return "numeric"
	case TypeText:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	default:
		return "invalid"
	}
}

// ParseType is the inverse of Type.String for the supported variants.
func ParseType(s string) (Type, bool) {
	for t := TypeMissing; t <= TypeDateTime; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return typeInvalid, false
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Value is one element of a vector. Values are immutable; build them with
// the constructors below. The zero Value is not a supported variant.
type Value struct {
	typ  Type
	num  *apd.Decimal
	text string
	b    bool
	date Date
	at   time.Time
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{typ: TypeMissing} }

// Float returns a numeric value holding the shortest decimal that
// round-trips to f. NaN and infinities are kept as numeric special values;
// callers that use NaN to mean "missing" must pass Missing() instead.
func Float(f float64) Value {
	d := new(apd.Decimal)
	switch {
	case math.IsNaN(f):
		d.Form = apd.NaN
	case math.IsInf(f, 0):
		d.Form = apd.Infinite
		d.Negative = f < 0
	case f == 0:
		d.Negative = math.Signbit(f)
	default:
		// Finite float64 values always format to a parseable literal.
		if _, err := d.SetFloat64(f); err != nil {
			panic(fmt.Sprintf("unf: SetFloat64(%v): %v", f, err))
		}
	}
	return Value{typ: TypeNumeric, num: d}
}

// Int returns a numeric value holding i exactly.
func Int(i int64) Value {
	return Value{typ: TypeNumeric, num: apd.New(i, 0)}
}

// Decimal parses a decimal literal ("12.50", "-1e-7", "-0", "Inf", "NaN")
// into an exact numeric value.
func Decimal(s string) (Value, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Value{}, wrapError(KindNumeric, "UNF-NUM-002", fmt.Sprintf("invalid decimal literal %q", s), err)
	}
	return Value{typ: TypeNumeric, num: d}, nil
}

// DecimalValue returns a numeric value holding a copy of d.
func DecimalValue(d *apd.Decimal) Value {
	if d == nil {
		return Missing()
	}
	c := new(apd.Decimal).Set(d)
	return Value{typ: TypeNumeric, num: c}
}

// Text returns a string value.
func Text(s string) Value { return Value{typ: TypeText, text: s} }

// Bool returns a boolean value; it fingerprints as 0 or 1.
func Bool(b bool) Value { return Value{typ: TypeBoolean, b: b} }

// NewDate returns a calendar date value.
func NewDate(year int, month time.Month, day int) Value {
	return Value{typ: TypeDate, date: Date{Year: year, Month: month, Day: day}}
}

// DateValue returns a calendar date value.
func DateValue(d Date) Value { return Value{typ: TypeDate, date: d} }

// DateTime returns an instant; its offset is discarded at normalization
// time, which converts to UTC.
func DateTime(t time.Time) Value { return Value{typ: TypeDateTime, at: t} }

// Type reports the variant held by v.
func (v Value) Type() Type { return v.typ }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.typ == TypeMissing }

func (v Value) String() string {
	switch v.typ {
	case TypeMissing:
		return "<missing>"
	case TypeNumeric:
		return v.num.String()
	case TypeText:
		return fmt.Sprintf("%q", v.text)
	case TypeBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case TypeDate:
		return v.date.String()
	case TypeDateTime:
		return v.at.Format(time.RFC3339Nano)
	default:
		return "<invalid>"
	}
}

// FromAny adapts a native Go value. nil maps to Missing. Anything outside
// the supported set yields an UnsupportedType error.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Missing(), nil
	case Value:
		if t.typ == typeInvalid {
			return Value{}, unsupported(t)
		}
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return uintValue(uint64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return uintValue(t), nil
	case float32:
		return float32Value(t), nil
	case float64:
		return Float(t), nil
	case string:
		return Text(t), nil
	case *apd.Decimal:
		return DecimalValue(t), nil
	case Date:
		return DateValue(t), nil
	case time.Time:
		return DateTime(t), nil
	default:
		return Value{}, unsupported(x)
	}
}

// Values adapts a slice of native Go values via FromAny.
func Values(xs ...any) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, x := range xs {
		v, err := FromAny(x)
		if err != nil {
			return nil, atIndex(err, "value", i)
		}
		out[i] = v
	}
	return out, nil
}

func uintValue(u uint64) Value {
	d, _, err := apd.NewFromString(strconv.FormatUint(u, 10))
	if err != nil {
		panic(fmt.Sprintf("unf: uint literal %d: %v", u, err))
	}
	return Value{typ: TypeNumeric, num: d}
}

// float32Value keeps the shortest float32 literal so 0.1f fingerprints as 0.1.
func float32Value(f float32) Value {
	g := float64(f)
	if math.IsNaN(g) || math.IsInf(g, 0) || g == 0 {
		return Float(g)
	}
	d, _, err := apd.NewFromString(strconv.FormatFloat(g, 'e', -1, 32))
	if err != nil {
		panic(fmt.Sprintf("unf: float32 literal %v: %v", f, err))
	}
	return Value{typ: TypeNumeric, num: d}
}

func unsupported(x any) error {
	return newError(KindUnsupportedType, "UNF-TYPE-001", fmt.Sprintf("unsupported value type %T", x))
}
