package util

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire
const DateLayout = "2006-01-02"

// ParseBusinessDate parses an ISO calendar date into local midnight in loc
func ParseBusinessDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse business date %q: %w", value, err)
	}
	return t, nil
}

// StartOfDay truncates t to midnight of its calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayWindow returns the half-open interval [date 00:00, date+1 00:00)
// in the date's location. AddDate keeps DST transitions on local midnight.
func DayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// FormatDate renders a business date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// IsFutureDate returns true if date falls after the calendar day of now in loc
func IsFutureDate(date, now time.Time, loc *time.Location) bool {
	return StartOfDay(date, loc).After(StartOfDay(now, loc))
}
