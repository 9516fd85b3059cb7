package table

import (
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"xdao.co/unf/unf"
)

// dateTimeLayouts are tried in order. Layouts without a zone read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

type cellParser struct {
	typ   unf.Type
	parse func(cell string, opts ReadOptions) (unf.Value, bool)
}

var parsers = []cellParser{
	{unf.TypeNumeric, parseNumeric},
	{unf.TypeBoolean, parseBoolean},
	{unf.TypeDate, parseDate},
	{unf.TypeDateTime, parseDateTime},
}

// buildColumn types one column of raw cells. missing[i] marks cells that
// matched a missing token.
func buildColumn(name string, cells []string, missing []bool, opts ReadOptions) Column {
	col := Column{Name: name, Values: make([]unf.Value, len(cells))}

	present := 0
	for _, m := range missing {
		if !m {
			present++
		}
	}
	if present == 0 {
		col.Type = unf.TypeMissing
		for i := range cells {
			col.Values[i] = unf.Missing()
		}
		return col
	}

	if opts.InferTypes {
		for _, p := range parsers {
			if values, ok := parseAll(cells, missing, opts, p.parse); ok {
				col.Type = p.typ
				col.Values = values
				return col
			}
		}
	}

	col.Type = unf.TypeText
	for i, cell := range cells {
		if missing[i] {
			col.Values[i] = unf.Missing()
			continue
		}
		col.Values[i] = unf.Text(cell)
	}
	return col
}

func parseAll(cells []string, missing []bool, opts ReadOptions, parse func(string, ReadOptions) (unf.Value, bool)) ([]unf.Value, bool) {
	out := make([]unf.Value, len(cells))
	for i, cell := range cells {
		if missing[i] {
			out[i] = unf.Missing()
			continue
		}
		v, ok := parse(strings.TrimSpace(cell), opts)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseNumeric(cell string, opts ReadOptions) (unf.Value, bool) {
	if cell == "" {
		return unf.Value{}, false
	}
	d, _, err := apd.NewFromString(cell)
	if err != nil {
		return unf.Value{}, false
	}
	switch d.Form {
	case apd.NaNSignaling:
		return unf.Value{}, false
	case apd.NaN:
		if opts.NaNAsMissing {
			return unf.Missing(), true
		}
	}
	return unf.DecimalValue(d), true
}

func parseBoolean(cell string, _ ReadOptions) (unf.Value, bool) {
	switch strings.ToLower(cell) {
	case "true":
		return unf.Bool(true), true
	case "false":
		return unf.Bool(false), true
	default:
		return unf.Value{}, false
	}
}

func parseDate(cell string, _ ReadOptions) (unf.Value, bool) {
	t, err := time.Parse(time.DateOnly, cell)
	if err != nil {
		return unf.Value{}, false
	}
	return unf.DateValue(unf.DateOf(t)), true
}

func parseDateTime(cell string, _ ReadOptions) (unf.Value, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return unf.DateTime(t), true
		}
	}
	return unf.Value{}, false
}
