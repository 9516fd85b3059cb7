package unf

import "sort"

// Combine folds a set of fingerprints into one. Inputs are validated against
// the wire format, sorted by raw bytes, and fingerprinted as a vector of Text
// values under cfg, so the result does not depend on input order and can
// itself be combined again.
//
// An empty set fingerprints the empty vector.
func Combine(fingerprints []string, cfg Config) (Fingerprint, error) {
	if err := cfg.Validate(); err != nil {
		return Fingerprint{}, err
	}
	for i, s := range fingerprints {
		if _, err := ParseFingerprint(s); err != nil {
			return Fingerprint{}, atIndex(err, "fingerprint", i)
		}
	}

	sorted := append([]string(nil), fingerprints...)
	sort.Strings(sorted)

	values := make([]Value, len(sorted))
	for i, s := range sorted {
		values[i] = Text(s)
	}
	return Compute(values, cfg)
}

// CombineFingerprints is Combine over already parsed fingerprints.
func CombineFingerprints(fps []Fingerprint, cfg Config) (Fingerprint, error) {
	strs := make([]string, len(fps))
	for i, f := range fps {
		strs[i] = f.String()
	}
	return Combine(strs, cfg)
}
