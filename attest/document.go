package attest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	Preamble  = "-----BEGIN UNF ATTESTATION-----"
	Postamble = "-----END UNF ATTESTATION-----"

	SpecName = "unf-attestation-1"
)

// SectionOrder is the required order of sections.
var SectionOrder = []string{"META", "SUBJECT", "CLAIMS", "CRYPTO"}

// Document is the section/key/value view of an attestation.
type Document struct {
	Meta    map[string]string
	Subject map[string]string
	Claims  map[string]string
	Crypto  map[string]string
}

func (d Document) section(name string) map[string]string {
	switch name {
	case "META":
		return d.Meta
	case "SUBJECT":
		return d.Subject
	case "CLAIMS":
		return d.Claims
	case "CRYPTO":
		return d.Crypto
	}
	return nil
}

// Render produces canonical bytes for d. The second result is the signed
// scope: everything up to and including the newline that ends CLAIMS.
func Render(d Document) ([]byte, []byte, error) {
	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")
	signedLen := 0

	for i, name := range SectionOrder {
		pairs := d.section(name)
		sb.WriteString(name)
		sb.WriteString("\n")

		keys := make([]string, 0, len(pairs))
		for k := range pairs {
			if err := checkKey(k); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", name, err)
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := checkValue(pairs[k]); err != nil {
				return nil, nil, fmt.Errorf("%s: %s: %w", name, k, err)
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(pairs[k])
			sb.WriteString("\n")
		}
		if name == "CLAIMS" {
			signedLen = sb.Len()
		}
		if i != len(SectionOrder)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(Postamble)

	out := []byte(sb.String())
	return out, out[:signedLen:signedLen], nil
}

func checkKey(k string) error {
	if k == "" {
		return errors.New("empty key")
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return fmt.Errorf("invalid key %q", k)
		}
	}
	return nil
}

func checkValue(v string) error {
	switch {
	case v == "":
		return errors.New("empty value")
	case strings.ContainsAny(v, "\r\n"):
		return errors.New("value must not contain newlines")
	case strings.HasPrefix(v, " "):
		return errors.New("value must not start with a space")
	case strings.HasSuffix(v, " ") || strings.HasSuffix(v, "\t"):
		return errors.New("trailing whitespace forbidden")
	}
	return nil
}

// Parse reads canonical attestation bytes. Input that does not re-render to
// exactly the same bytes is rejected.
func Parse(data []byte) (Document, error) {
	if !utf8.Valid(data) {
		return Document{}, errors.New("attestation must be valid UTF-8")
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || lines[0] != Preamble {
		return Document{}, errors.New("missing attestation preamble")
	}
	if lines[len(lines)-1] != Postamble {
		return Document{}, errors.New("attestation must end with the postamble and no newline")
	}

	doc := Document{
		Meta:    map[string]string{},
		Subject: map[string]string{},
		Claims:  map[string]string{},
		Crypto:  map[string]string{},
	}
	body := lines[1 : len(lines)-1]
	i := 0
	for s, name := range SectionOrder {
		if i >= len(body) || body[i] != name {
			return Document{}, fmt.Errorf("sections missing or out of order (expected %q)", name)
		}
		i++
		pairs := doc.section(name)
		for i < len(body) && body[i] != "" {
			k, v, ok := strings.Cut(body[i], ": ")
			if !ok {
				return Document{}, fmt.Errorf("%s: malformed line %q", name, body[i])
			}
			if _, dup := pairs[k]; dup {
				return Document{}, fmt.Errorf("%s: duplicate key %q", name, k)
			}
			pairs[k] = v
			i++
		}
		if s != len(SectionOrder)-1 {
			if i >= len(body) {
				return Document{}, fmt.Errorf("missing blank line after section %q", name)
			}
			i++
		}
	}
	if i != len(body) {
		return Document{}, errors.New("unexpected content before postamble")
	}

	canon, _, err := Render(doc)
	if err != nil {
		return Document{}, err
	}
	if string(canon) != string(data) {
		return Document{}, errors.New("attestation is not canonical")
	}
	return doc, nil
}
