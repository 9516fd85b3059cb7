// Package table reads delimited text files into typed columns of unf values.
//
// Each column gets a single type, inferred from its non-missing cells in the
// order numeric, boolean, date, datetime, and falling back to text. Numeric
// cells are kept as exact decimals, so "2.65" is fingerprinted from its
// decimal spelling rather than from the nearest binary float.
package table
