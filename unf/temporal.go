package unf

import "time"

const dateTimeLayout = "2006-01-02T15:04:05"

// NormalizeDate renders d as YYYY-MM-DD.
func NormalizeDate(d Date) []byte {
	return []byte(d.String())
}

// NormalizeDateTime renders t in UTC as YYYY-MM-DDTHH:MM:SS. Fractional
// seconds are dropped and no zone suffix is written.
func NormalizeDateTime(t time.Time) []byte {
	return []byte(t.UTC().Format(dateTimeLayout))
}
