package unf

// NormalizeString keeps the first cfg.MaxChars code points of s and returns
// them as UTF-8. No case folding, trimming or Unicode normalization is
// applied. Invalid UTF-8 bytes count as one code point each and pass through
// unchanged.
func NormalizeString(s string, cfg Config) []byte {
	n := 0
	for i := range s {
		if n == cfg.MaxChars {
			return []byte(s[:i])
		}
		n++
	}
	return []byte(s)
}
