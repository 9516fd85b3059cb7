package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"xdao.co/unf/table"
)

// ErrMismatch is wrapped by Verify and Recheck when a recomputed UNF differs
// from the recorded one.
var ErrMismatch = errors.New("unf mismatch")

// Verify validates r and recomputes its dataset UNF from the column UNFs.
func Verify(r *Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	cfg, err := r.Config()
	if err != nil {
		return err
	}
	fp, err := r.combine(cfg)
	if err != nil {
		return err
	}
	if got := fp.String(); got != r.UNF {
		return fmt.Errorf("%w: dataset recomputes to %s, report says %s", ErrMismatch, got, r.UNF)
	}
	return nil
}

// Recheck recomputes r from tbl under r's own parameters and reports every
// difference. A nil slice means the data still matches.
func Recheck(ctx context.Context, r *Report, tbl *table.Table, opts Options) ([]Change, error) {
	if err := Verify(r); err != nil {
		return nil, err
	}
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	opts.Source = r.Source
	fresh, err := Compute(ctx, tbl, cfg, opts)
	if err != nil {
		return nil, err
	}
	return Diff(r, fresh), nil
}

// ChangeKind classifies one difference between two reports.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeChanged ChangeKind = "changed"
	ChangeMoved   ChangeKind = "moved"
)

// Change is a column-level difference. Dataset-level differences use an
// empty Column.
type Change struct {
	Kind   ChangeKind `json:"kind" yaml:"kind"`
	Column string     `json:"column,omitempty" yaml:"column,omitempty"`
	Field  string     `json:"field,omitempty" yaml:"field,omitempty"`
	Old    string     `json:"old,omitempty" yaml:"old,omitempty"`
	New    string     `json:"new,omitempty" yaml:"new,omitempty"`
}

func (c Change) String() string {
	subject := c.Column
	if subject == "" {
		subject = "<dataset>"
	}
	switch c.Kind {
	case ChangeAdded, ChangeRemoved:
		return fmt.Sprintf("%s %s", c.Kind, subject)
	default:
		return fmt.Sprintf("%s %s %s: %s -> %s", c.Kind, subject, c.Field, c.Old, c.New)
	}
}

// Diff lists the differences from a to b: parameter and row count changes,
// columns added, removed or reordered, and per-column type, missing count
// and UNF changes. Changes are ordered dataset first, then by column name.
func Diff(a, b *Report) []Change {
	var out []Change
	field := func(col, name, before, after string) {
		if before != after {
			out = append(out, Change{Kind: ChangeChanged, Column: col, Field: name, Old: before, New: after})
		}
	}

	ac, _ := a.Config()
	bc, _ := b.Config()
	field("", "params", ac.Header(), bc.Header())
	field("", "rows", fmt.Sprint(a.Rows), fmt.Sprint(b.Rows))
	field("", "unf", a.UNF, b.UNF)

	aIdx := indexColumns(a.Columns)
	bIdx := indexColumns(b.Columns)
	names := make([]string, 0, len(aIdx)+len(bIdx))
	for n := range aIdx {
		names = append(names, n)
	}
	for n := range bIdx {
		if _, ok := aIdx[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	for _, n := range names {
		ai, inA := aIdx[n]
		bi, inB := bIdx[n]
		switch {
		case !inB:
			out = append(out, Change{Kind: ChangeRemoved, Column: n, Old: a.Columns[ai].UNF})
		case !inA:
			out = append(out, Change{Kind: ChangeAdded, Column: n, New: b.Columns[bi].UNF})
		default:
			ca, cb := a.Columns[ai], b.Columns[bi]
			field(n, "type", ca.Type, cb.Type)
			field(n, "missing", fmt.Sprint(ca.Missing), fmt.Sprint(cb.Missing))
			field(n, "unf", ca.UNF, cb.UNF)
			if ai != bi {
				out = append(out, Change{Kind: ChangeMoved, Column: n, Field: "position", Old: fmt.Sprint(ai), New: fmt.Sprint(bi)})
			}
		}
	}
	return out
}

func indexColumns(cols []Column) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		m[c.Name] = i
	}
	return m
}
