package unf

import "fmt"

var (
	missingSentinel = []byte{0, 0, 0}
	terminator      = []byte{'\n', 0}
)

// EncodeValue returns the byte segment v contributes to a vector stream:
// the missing sentinel (three NUL bytes, no terminator) or the normalized
// bytes followed by "\n\x00".
func EncodeValue(v Value, cfg Config) ([]byte, error) {
	return AppendValue(nil, v, cfg)
}

// AppendValue appends v's segment to dst.
func AppendValue(dst []byte, v Value, cfg Config) ([]byte, error) {
	if v.typ == TypeMissing {
		return append(dst, missingSentinel...), nil
	}
	norm, err := normalizeValue(v, cfg)
	if err != nil {
		return dst, err
	}
	dst = append(dst, norm...)
	return append(dst, terminator...), nil
}

// EncodeVector concatenates the segments of values in their given order.
func EncodeVector(values []Value, cfg Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var out []byte
	for i, v := range values {
		var err error
		out, err = AppendValue(out, v, cfg)
		if err != nil {
			return nil, atIndex(err, "value", i)
		}
	}
	return out, nil
}

func normalizeValue(v Value, cfg Config) ([]byte, error) {
	switch v.typ {
	case TypeNumeric:
		return normalizeNumeric(v.num, cfg)
	case TypeText:
		return NormalizeString(v.text, cfg), nil
	case TypeBoolean:
		return NormalizeBoolean(v.b, cfg), nil
	case TypeDate:
		return NormalizeDate(v.date), nil
	case TypeDateTime:
		return NormalizeDateTime(v.at), nil
	default:
		return nil, newError(KindUnsupportedType, "UNF-TYPE-001", fmt.Sprintf("unsupported value variant %d", v.typ))
	}
}
