package util

import (
	"strconv"
	"time"
)

// DayLayout is the date format used in API payloads.
const DayLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a plain date, and unix seconds. Returns (t, true) if any worked.
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
	if t, err := time.Parse(DayLayout, s); err == nil {
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

// FormatDay renders t as YYYY-MM-DD in its own location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// NextDay returns the calendar day after t. Weekends and exchange holidays are not skipped.
func NextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

// TradingDay converts a bar's unix timestamp to midnight of its trading day in
// the exchange location.
func TradingDay(unix int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(unix, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
