package unf

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindConfig               Kind = "Config"
	KindUnsupportedType      Kind = "UnsupportedType"
	KindMalformedFingerprint Kind = "MalformedFingerprint"
	KindNumeric              Kind = "Numeric"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., UNF-CFG-003, UNF-FMT-005) naming the
// violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// atIndex re-labels a structured error with the vector position that caused
// it. Kind and RuleID are preserved.
func atIndex(err error, what string, i int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:    e.Kind,
		RuleID:  e.RuleID,
		Message: fmt.Sprintf("%s %d: %s", what, i, e.Message),
		Cause:   err,
	}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
