package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"xdao.co/unf/unf"
)

// Column is one named, typed vector.
type Column struct {
	Name   string
	Type   unf.Type
	Values []unf.Value
}

// Missing counts the missing values in c.
func (c Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Table is a set of equally long columns in file order.
type Table struct {
	Columns []Column
	Rows    int
}

// New assembles a table from columns, requiring unique names and equal lengths.
func New(columns []Column) (*Table, error) {
	t := &Table{Columns: columns}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			t.Rows = len(c.Values)
			continue
		}
		if len(c.Values) != t.Rows {
			return nil, fmt.Errorf("table: column %q has %d values, want %d", c.Name, len(c.Values), t.Rows)
		}
	}
	return t, nil
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names lists the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Select returns a table holding only the named columns, in the order given.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("table: no column %q", name)
		}
		cols = append(cols, c)
	}
	out, err := New(cols)
	if err != nil {
		return nil, err
	}
	out.Rows = t.Rows
	return out, nil
}

// ReadOptions controls ReadCSV.
type ReadOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Encoding names the input charset; see LookupEncoding.
	Encoding string
	// MissingTokens are exact cell spellings read as missing.
	MissingTokens []string
	// NaNAsMissing reads NaN cells of numeric columns as missing.
	NaNAsMissing bool
	// InferTypes enables type detection; otherwise every column is text.
	InferTypes bool
	// NoHeader treats the first record as data; columns are named V1, V2...
	NoHeader bool
}

// DefaultReadOptions returns comma-separated UTF-8 with type inference, the
// usual missing spellings, and NaN read as missing.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		Delimiter:     ',',
		Encoding:      "utf-8",
		MissingTokens: []string{"", "NA", "N/A", "null", "NULL"},
		NaNAsMissing:  true,
		InferTypes:    true,
	}
}

// ErrEmpty is returned for input with no header and no records.
var ErrEmpty = errors.New("table: no records")

// ReadCSV parses delimited text into a typed table.
func ReadCSV(r io.Reader, opts ReadOptions) (*Table, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bufio.NewReader(decoded))
	cr.Comma = opts.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	var names []string
	if opts.NoHeader {
		names = make([]string, len(records[0]))
		for i := range names {
			names[i] = fmt.Sprintf("V%d", i+1)
		}
	} else {
		names = records[0]
		records = records[1:]
		for i, n := range names {
			if strings.TrimSpace(n) == "" {
				names[i] = fmt.Sprintf("V%d", i+1)
			}
		}
	}

	missingTok := make(map[string]struct{}, len(opts.MissingTokens))
	for _, tok := range opts.MissingTokens {
		missingTok[tok] = struct{}{}
	}

	columns := make([]Column, len(names))
	cells := make([]string, len(records))
	missing := make([]bool, len(records))
	for j, name := range names {
		for i, rec := range records {
			cells[i] = rec[j]
			_, missing[i] = missingTok[rec[j]]
		}
		columns[j] = buildColumn(name, cells, missing, opts)
	}

	t, err := New(columns)
	if err != nil {
		return nil, err
	}
	t.Rows = len(records)
	return t, nil
}

// ReadFile opens path and reads it with ReadCSV. A ".tsv" file with the
// default delimiter is read tab-separated.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".tsv") && (opts.Delimiter == 0 || opts.Delimiter == ',') {
		opts.Delimiter = '\t'
	}
	t, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseDelimiter converts a configured delimiter string to a rune. `\t`
// spelled with a backslash is accepted.
func ParseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("table: delimiter must be one character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
