package unf

import (
	"errors"
	"testing"
)

func TestErrorTaxonomy_Config(t *testing.T) {
	cases := []struct {
		cfg  Config
		rule string
	}{
		{Config{Precision: 0, MaxChars: 128, HashBits: 128}, "UNF-CFG-001"},
		{Config{Precision: 7, MaxChars: 0, HashBits: 128}, "UNF-CFG-002"},
		{Config{Precision: 7, MaxChars: 128, HashBits: 64}, "UNF-CFG-003"},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if !IsKind(err, KindConfig) {
			t.Fatalf("%+v: expected Config kind, got %v", tc.cfg, err)
		}
		if got := RuleID(err); got != tc.rule {
			t.Fatalf("%+v: rule %q want %q", tc.cfg, got, tc.rule)
		}
	}
	if _, err := NewConfig(WithHashBits(196)); err != nil {
		t.Fatalf("H196 must be accepted: %v", err)
	}
}

func TestErrorTaxonomy_Numeric(t *testing.T) {
	_, err := Decimal("1.2.3")
	if !IsKind(err, KindNumeric) || RuleID(err) != "UNF-NUM-002" {
		t.Fatalf("expected UNF-NUM-002, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Cause == nil {
		t.Fatalf("expected wrapped cause, got %#v", err)
	}
}

func TestErrorTaxonomy_IndexPreservesRule(t *testing.T) {
	_, err := ComputeAny(DefaultConfig(), 1, map[string]int{})
	if RuleID(err) != "UNF-TYPE-001" {
		t.Fatalf("rule lost through index wrapping: %v", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error")
	}
	var inner *Error
	if !errors.As(e.Cause, &inner) || inner.RuleID != e.RuleID {
		t.Fatalf("cause should be the unlabeled error")
	}
}

func TestErrorTaxonomy_UnknownErrors(t *testing.T) {
	plain := errors.New("x")
	if IsKind(plain, KindConfig) || RuleID(plain) != "" {
		t.Fatalf("plain errors carry no taxonomy")
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Fatalf("nil *Error must be safe")
	}
}
