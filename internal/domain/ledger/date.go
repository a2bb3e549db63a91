package ledger

import "time"

// CalendarDay truncates t to midnight UTC of its calendar date. Ledger rows are
// keyed by calendar day, never by timestamp.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameCalendarDay reports whether a and b fall on the same calendar date
func SameCalendarDay(a, b time.Time) bool {
	return CalendarDay(a).Equal(CalendarDay(b))
}

// EndOfDay returns the last instant of t's calendar date
func EndOfDay(t time.Time) time.Time {
	return CalendarDay(t).Add(24*time.Hour - time.Nanosecond)
}
