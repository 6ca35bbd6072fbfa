// Package dateutil provides calendar date helpers for exam dates.
// Exam dates carry no time of day or zone, so every value produced here is
// midnight UTC. No external dependencies - uses only standard library.
package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO 8601 calendar date layout used on the wire and in storage.
const Layout = "2006-01-02"

// Date creates a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOnly drops the time of day and zone, keeping the calendar date as seen
// in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Parse parses a YYYY-MM-DD string.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// Format formats a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FormatOptional formats a date pointer, returning nil for an absent date.
func FormatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// IsSameDay checks if two times are on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
