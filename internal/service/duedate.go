package service

import "time"

// NeverDue is the day count returned when a stored date cannot be parsed.
// A malformed date must never crash a sweep; returning a count far beyond any
// lookahead window simply keeps the record out of timely notification.
const NeverDue = 999

// DateLayout is the calendar-date form used for stored due dates.
const DateLayout = "2006-01-02"

// DaysUntilDue computes the whole-day distance from now to dueDate in loc,
// comparing calendar dates only (time of day is ignored). Overdue and
// due-today both yield 0.
func DaysUntilDue(dueDate string, now time.Time, loc *time.Location) int {
	due, ok := ParseDate(dueDate, loc)
	if !ok {
		return NeverDue
	}
	days := int(midnight(due.In(loc)).Sub(midnight(now.In(loc))).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ParseDate accepts a bare calendar date, taken to be in loc, or a timestamp
// that already carries timezone info.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	// Anchor in UTC so DST shifts cannot make a day 23 or 25 hours long.
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
