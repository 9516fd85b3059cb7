package unf

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestNormalizeString_TruncatesCodePoints(t *testing.T) {
	cfg := mustConfig(t, WithMaxChars(3))
	cases := map[string]string{
		"héllo":   "hél",
		"日本語テキスト": "日本語",
		"ab":      "ab",
		"":        "",
	}
	for in, want := range cases {
		if got := string(NormalizeString(in, cfg)); got != want {
			t.Fatalf("NormalizeString(%q) = %q want %q", in, got, want)
		}
	}
}

func TestNormalizeString_NoFoldingOrTrimming(t *testing.T) {
	cfg := DefaultConfig()
	for _, s := range []string{" Hello ", "HELLO", "é", "tab\there"} {
		if got := string(NormalizeString(s, cfg)); got != s {
			t.Fatalf("NormalizeString(%q) altered input: %q", s, got)
		}
	}
	// Precomposed and decomposed forms stay distinct.
	if string(NormalizeString("\u00e9", cfg)) == string(NormalizeString("e\u0301", cfg)) {
		t.Fatalf("unicode normalization must not be applied")
	}
}

func TestNormalizeString_DefaultLimit(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := NormalizeString(long, DefaultConfig())
	if len(got) != DefaultMaxChars {
		t.Fatalf("expected %d chars, got %d", DefaultMaxChars, len(got))
	}
}

func TestNormalizeDateAndDateTime(t *testing.T) {
	if got := string(NormalizeDate(Date{Year: 2024, Month: time.January, Day: 15})); got != "2024-01-15" {
		t.Fatalf("date: got %q", got)
	}
	if got := string(NormalizeDate(Date{Year: 7, Month: time.March, Day: 4})); got != "0007-03-04" {
		t.Fatalf("padded date: got %q", got)
	}

	zone := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, 1, 15, 16, 30, 0, 750_000_000, zone)
	if got := string(NormalizeDateTime(at)); got != "2024-01-15T14:30:00" {
		t.Fatalf("datetime: got %q", got)
	}

	same := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	if string(NormalizeDateTime(at)) != string(NormalizeDateTime(same)) {
		t.Fatalf("equal instants must normalize identically")
	}
}

func TestNormalizeBitfield(t *testing.T) {
	b, ok := NormalizeBitfield([]bool{false, false, true, false, true})
	if !ok {
		t.Fatalf("expected ok")
	}
	// Leading zeros dropped: 101 packed big-endian is 0b10100000.
	want := base64.StdEncoding.EncodeToString([]byte{0xA0})
	if string(b) != want {
		t.Fatalf("got %q want %q", b, want)
	}

	if _, ok := NormalizeBitfield([]bool{false, false}); ok {
		t.Fatalf("all-false bitfield must report !ok")
	}
	if !Bitfield(nil).IsMissing() {
		t.Fatalf("empty bitfield must be missing")
	}

	nine := []bool{true, false, false, false, false, false, false, false, true}
	b, _ = NormalizeBitfield(nine)
	if string(b) != base64.StdEncoding.EncodeToString([]byte{0x80, 0x80}) {
		t.Fatalf("nine bits: got %q", b)
	}
}
