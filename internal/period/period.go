package period

import (
	"fmt"
	"time"
)

// MonthKey returns the UTC bucket key "2025-01" for t.
// Keys are fixed-width, so lexicographic order is chronological order.
func MonthKey(t time.Time) string {
	u := t.UTC()
	return FormatMonthKey(u.Year(), int(u.Month()))
}

// FormatMonthKey returns a key like "2025-01".
func FormatMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// TrailingMonth returns the window from midnight one calendar month before now's
// date through the last instant of that date. The calendar date is read in now's
// location but the window is built in UTC, where transaction dates live.
//
// The month is subtracted with time.AddDate, so day overflow normalizes forward:
// 31 March yields 3 March (2 March in leap years).
func TrailingMonth(now time.Time) Window {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: today.AddDate(0, -1, 0),
		End:   today.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}
