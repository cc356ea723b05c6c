package types

import (
	"fmt"
	"time"
)

// Stored timestamps use ISO-8601 local time without offset at second
// precision. The audit checksum hashes the exact string, so every writer
// must emit this one format.
const (
	TimeLayout        = "2006-01-02T15:04:05"
	timeLayoutFrac    = "2006-01-02T15:04:05.999999"
	CompactTimeLayout = "20060102_150405"
	DateLayout        = "2006-01-02"
)

// FormatTime renders t in the stored-timestamp format.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// CompactTimestamp renders t in the filename-safe format used by alert
// and notification names.
func CompactTimestamp(t time.Time) string {
	return t.Format(CompactTimeLayout)
}

// ParseTime reads a stored timestamp. Rows written by the previous
// implementation may carry fractional seconds; those parse too, though
// new rows never include them.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(timeLayoutFrac, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}
