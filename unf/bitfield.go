package unf

import "encoding/base64"

// NormalizeBitfield packs bits big-endian after dropping leading false bits
// and returns the base64 text. ok is false when no bit is set; such a field
// is fingerprinted as missing.
func NormalizeBitfield(bits []bool) (b []byte, ok bool) {
	for len(bits) > 0 && !bits[0] {
		bits = bits[1:]
	}
	if len(bits) == 0 {
		return nil, false
	}
	packed := make([]byte, (len(bits)+7)/8)
	for i, set := range bits {
		if set {
			packed[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(packed)))
	base64.StdEncoding.Encode(out, packed)
	return out, true
}

// Bitfield returns the vector element for a bit field: its base64 text, or
// Missing when no bit is set.
func Bitfield(bits []bool) Value {
	b, ok := NormalizeBitfield(bits)
	if !ok {
		return Missing()
	}
	return Text(string(b))
}
