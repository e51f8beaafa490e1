package util

import (
	"math"
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseDate parses a calendar date (2006-01-02), falling back to the
// timestamp formats ParseTime accepts.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return ParseTime(s)
}

// LeadDays is the whole number of days between quote time and stay
// date, floored at zero (same-day and past-dated quotes count as zero).
func LeadDays(quote, stay time.Time) int {
	q := quote.UTC().Truncate(24 * time.Hour)
	s := stay.UTC().Truncate(24 * time.Hour)
	d := int(s.Sub(q).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// CyclicalEncode maps a cyclic integer (day-of-week, month) onto the
// unit circle so December and January are neighbors, not extremes.
func CyclicalEncode(value, period int) (sin, cos float64) {
	theta := 2 * math.Pi * float64(value) / float64(period)
	return math.Sin(theta), math.Cos(theta)
}

// Clamp01 clamps a rate to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
