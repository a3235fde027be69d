package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	LayoutDate  = "2006-01-02"
	LayoutClock = "15:04"
)

// Travel dates are civil dates. They are carried as time.Time at midnight UTC so
// that comparisons and MySQL DATE round-trips never shift a day.

// CivilDate returns the calendar date of t as seen in loc, at midnight UTC.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(LayoutDate, strings.TrimSpace(s), time.UTC)
}

// FormatDate formats a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}

// ParseClock validates an HH:MM clock time and returns its offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		// MySQL TIME columns come back as HH:MM:SS
		s = s[:5]
	}
	t, err := time.Parse(LayoutClock, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
