package unf

import (
	"math"
	"testing"
)

func mustConfig(t *testing.T, opts ...Option) Config {
	t.Helper()
	cfg, err := NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestNormalizeFloat_Table(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		in   float64
		want string
	}{
		{1, "+1.e+"},
		{2, "+2.e+"},
		{3.1415, "+3.1415e+"},
		{-2.5, "-2.5e+"},
		{0.00001, "+1.e-5"},
		{1234567890, "+1.234568e+9"},
		{9.9999999, "+1.e+1"},
		{0.1, "+1.e-1"},
		{0.15, "+1.5e-1"},
		{100, "+1.e+2"},
		{-123.456, "-1.23456e+2"},
		{1.5e-7, "+1.5e-7"},
		{1e300, "+1.e+300"},
		{5e-324, "+5.e-324"},
		{math.MaxFloat64, "+1.797693e+308"},
	}
	for _, tc := range cases {
		got, err := NormalizeFloat(tc.in, cfg)
		if err != nil {
			t.Fatalf("NormalizeFloat(%v): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("NormalizeFloat(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeFloat_SpecialValues(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		in   float64
		want string
	}{
		{math.Inf(1), "+inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "+nan"},
		{math.Copysign(math.NaN(), -1), "+nan"},
		{0, "+0.e+"},
		{math.Copysign(0, -1), "-0.e+"},
	}
	for _, tc := range cases {
		got, err := NormalizeFloat(tc.in, cfg)
		if err != nil {
			t.Fatalf("NormalizeFloat(%v): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("NormalizeFloat(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeFloat_SignedZerosDiffer(t *testing.T) {
	cfg := DefaultConfig()
	pos, _ := NormalizeFloat(0, cfg)
	neg, _ := NormalizeFloat(math.Copysign(0, -1), cfg)
	if string(pos) == string(neg) {
		t.Fatalf("+0 and -0 normalized identically: %q", pos)
	}
}

func TestNormalizeDecimal_HalfEvenOnExactDecimal(t *testing.T) {
	cfg := mustConfig(t, WithPrecision(2))
	cases := map[string]string{
		// -2.65 is below the tie in binary; decimal rounding must see the tie.
		"-2.65": "-2.6e+",
		"0.125": "+1.2e-1",
		"2.5":   "+2.5e+",
		"0.135": "+1.4e-1",
		"1.000": "+1.e+",
		"-0":    "-0.e+",
		"0.000": "+0.e+",
	}
	for in, want := range cases {
		v, err := Decimal(in)
		if err != nil {
			t.Fatalf("Decimal(%q): %v", in, err)
		}
		got, err := NormalizeDecimal(v.num, cfg)
		if err != nil {
			t.Fatalf("NormalizeDecimal(%q): %v", in, err)
		}
		if string(got) != want {
			t.Fatalf("NormalizeDecimal(%q) = %q want %q", in, got, want)
		}
	}
}

func TestNormalizeFloat_PrecisionOne(t *testing.T) {
	cfg := mustConfig(t, WithPrecision(1))
	cases := []struct {
		in   float64
		want string
	}{
		{3.9999999, "+4.e+"},
		{2.5, "+2.e+"},
		{3.5, "+4.e+"},
		{15, "+2.e+1"},
		{25, "+2.e+1"},
		{-0.0951, "-1.e-1"},
	}
	for _, tc := range cases {
		got, err := NormalizeFloat(tc.in, cfg)
		if err != nil {
			t.Fatalf("NormalizeFloat(%v): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("N1 NormalizeFloat(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeFloat_Truncate(t *testing.T) {
	cfg := mustConfig(t, WithTruncate(true))
	got, err := NormalizeFloat(3.1415926, cfg)
	if err != nil {
		t.Fatalf("NormalizeFloat: %v", err)
	}
	if string(got) != "+3.141592e+" {
		t.Fatalf("truncate: got %q", got)
	}

	cfg1 := mustConfig(t, WithPrecision(1), WithTruncate(true))
	got, _ = NormalizeFloat(3.9999999, cfg1)
	if string(got) != "+3.e+" {
		t.Fatalf("truncate N1: got %q", got)
	}
	got, _ = NormalizeFloat(-3.9999999, cfg1)
	if string(got) != "-3.e+" {
		t.Fatalf("truncate N1 negative: got %q", got)
	}
}

func TestNormalizeInt_And_Boolean(t *testing.T) {
	cfg := DefaultConfig()
	one, err := NormalizeInt(1, cfg)
	if err != nil {
		t.Fatalf("NormalizeInt: %v", err)
	}
	zero, _ := NormalizeInt(0, cfg)
	if string(NormalizeBoolean(true, cfg)) != string(one) {
		t.Fatalf("true should normalize like 1: %q vs %q", NormalizeBoolean(true, cfg), one)
	}
	if string(NormalizeBoolean(false, cfg)) != string(zero) {
		t.Fatalf("false should normalize like 0: %q vs %q", NormalizeBoolean(false, cfg), zero)
	}
	big, _ := NormalizeInt(math.MaxInt64, cfg)
	if string(big) != "+9.223372e+18" {
		t.Fatalf("MaxInt64: got %q", big)
	}
}

func TestNormalizeDecimal_ExponentOutOfRange(t *testing.T) {
	v, err := Decimal("1e200000")
	if err != nil {
		t.Skipf("literal rejected at parse time: %v", err)
	}
	_, err = NormalizeDecimal(v.num, DefaultConfig())
	if err == nil {
		t.Fatalf("expected error for out-of-range exponent")
	}
	if RuleID(err) != "UNF-NUM-001" {
		t.Fatalf("expected UNF-NUM-001, got %q (%v)", RuleID(err), err)
	}
}

func TestNormalizeDecimal_Nil(t *testing.T) {
	if _, err := NormalizeDecimal(nil, DefaultConfig()); !IsKind(err, KindUnsupportedType) {
		t.Fatalf("expected UnsupportedType, got %v", err)
	}
}
