// Package dataset fingerprints whole tables and records the result as a
// canonical report.
//
// A dataset UNF is the combination of its column UNFs. Columns are
// fingerprinted concurrently; the report lists each column's type, missing
// count and UNF next to the dataset UNF and, optionally, the content id of
// the file the table was read from. Canonical report bytes are what gets
// published to a storage.CAS and signed by package attest.
package dataset
