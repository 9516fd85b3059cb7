// Package unf computes Universal Numerical Fingerprints, version 6.
//
// A fingerprint identifies a vector of values independently of how the
// values were stored. Each value is canonicalized to bytes (numbers rounded
// to N significant digits in decimal arithmetic, strings cut to X code
// points, dates and instants rendered in ISO 8601 UTC), terminated, and the
// concatenated stream is hashed with SHA-256 and truncated to H bits:
//
//	cfg := unf.DefaultConfig()
//	fp, err := unf.Compute([]unf.Value{unf.Float(1), unf.Missing(), unf.Text("a")}, cfg)
//	// fp.String() == "UNF:6:..."
//
// Combine folds several fingerprints into one in an order-independent way;
// a dataset fingerprint is the combination of its column fingerprints.
//
// Everything in this package is a pure function of its inputs and Config.
// It performs no I/O and keeps no global state, so independent vectors may
// be fingerprinted concurrently.
//
// Missing values must be constructed explicitly with Missing. A NaN passed
// through Float is fingerprinted as the numeric "+nan", not as missing;
// adapters that read NaN as "not available" convert before building values.
package unf
