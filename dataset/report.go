package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/unf"
)

// ReportFormat identifies the report document layout.
const ReportFormat = "unf-report-1"

// Report is the result of fingerprinting one table.
type Report struct {
	Format     string   `json:"format"`
	UNFVersion int      `json:"unf_version"`
	Params     Params   `json:"params"`
	Source     *Source  `json:"source,omitempty"`
	Rows       int      `json:"rows"`
	Columns    []Column `json:"columns"`
	UNF        string   `json:"unf"`
}

// Params mirrors unf.Config.
type Params struct {
	Precision int  `json:"precision"`
	MaxChars  int  `json:"max_chars"`
	HashBits  int  `json:"hash_bits"`
	Truncate  bool `json:"truncate"`
}

func ParamsOf(cfg unf.Config) Params {
	return Params{Precision: cfg.Precision, MaxChars: cfg.MaxChars, HashBits: cfg.HashBits, Truncate: cfg.Truncate}
}

// Config validates p as a unf.Config.
func (p Params) Config() (unf.Config, error) {
	return unf.NewConfig(
		unf.WithPrecision(p.Precision),
		unf.WithMaxChars(p.MaxChars),
		unf.WithHashBits(p.HashBits),
		unf.WithTruncate(p.Truncate),
	)
}

// Source identifies the bytes a table was read from.
type Source struct {
	Name  string `json:"name"`
	CID   string `json:"cid"`
	Bytes int64  `json:"bytes"`
}

// SourceOf hashes r and returns a Source named name.
func SourceOf(name string, r io.Reader) (*Source, error) {
	id, n, err := cidutil.SumReader(r)
	if err != nil {
		return nil, fmt.Errorf("hash source %s: %w", name, err)
	}
	return &Source{Name: name, CID: id.String(), Bytes: n}, nil
}

// Column is one column's entry in a report.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Missing int    `json:"missing"`
	UNF     string `json:"unf"`
}

// Canonical renders the report bytes that are hashed, stored and signed:
// fields in declaration order, two-space indent, no HTML escaping, one
// trailing newline.
func (r *Report) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CID returns the content id of the canonical bytes.
func (r *Report) CID() (string, error) {
	b, err := r.Canonical()
	if err != nil {
		return "", err
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Config returns the report's parameters as a unf.Config.
func (r *Report) Config() (unf.Config, error) {
	return r.Params.Config()
}

// Column returns the named column entry.
func (r *Report) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ParseReport decodes a canonical report. Unknown fields, trailing data and
// any byte sequence other than the report's own Canonical rendering are
// rejected, as are reports that fail Validate.
func ParseReport(b []byte) (*Report, error) {
	if !utf8.Valid(b) {
		return nil, errors.New("report must be valid UTF-8")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var r Report
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after report")
	}
	canon, err := r.Canonical()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canon, b) {
		return nil, errors.New("report is not canonical")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the report's internal structure: format, parameters,
// column names, and that every UNF parses and was computed under Params.
// It does not recompute the dataset UNF; see Verify.
func (r *Report) Validate() error {
	if r.Format != ReportFormat {
		return fmt.Errorf("report format %q, want %q", r.Format, ReportFormat)
	}
	if r.UNFVersion != unf.Version {
		return fmt.Errorf("report unf_version %d, want %d", r.UNFVersion, unf.Version)
	}
	cfg, err := r.Params.Config()
	if err != nil {
		return fmt.Errorf("report params: %w", err)
	}
	if r.Rows < 0 {
		return errors.New("report rows must not be negative")
	}
	if r.Source != nil {
		if _, err := cidutil.Parse(r.Source.CID); err != nil {
			return fmt.Errorf("report source cid: %w", err)
		}
		if r.Source.Bytes < 0 {
			return errors.New("report source bytes must not be negative")
		}
	}
	if r.Columns == nil {
		return errors.New("report columns must be present")
	}
	seen := make(map[string]struct{}, len(r.Columns))
	for i, c := range r.Columns {
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("column %d: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, ok := unf.ParseType(c.Type); !ok {
			return fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
		}
		if c.Missing < 0 || c.Missing > r.Rows {
			return fmt.Errorf("column %q: missing count %d out of range", c.Name, c.Missing)
		}
		if err := checkUNF(c.UNF, cfg); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	if err := checkUNF(r.UNF, cfg); err != nil {
		return fmt.Errorf("dataset unf: %w", err)
	}
	return nil
}

func checkUNF(s string, cfg unf.Config) error {
	fp, err := unf.ParseFingerprint(s)
	if err != nil {
		return err
	}
	if fp.Config != cfg {
		return fmt.Errorf("%s was not computed under %s", s, cfg.Header())
	}
	return nil
}
