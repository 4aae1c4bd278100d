// Package timeutil provides calendar-day utilities for the progress ledger.
// Streaks and daily reward gates work at calendar-day granularity (a date
// string, not a timestamp), so the comparisons live here in one place.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// DayLayout is the calendar-day format used by streaks and reward gates.
const DayLayout = "2006-01-02"

// Clock abstracts wall-clock time so ledgers can be tested deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// DayString formats a time as a calendar day.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}

// Today returns the calendar day of now.
func Today(clock Clock) string {
	return DayString(clock.Now())
}

// Yesterday returns the calendar day immediately before now.
func Yesterday(clock Clock) string {
	return DayString(clock.Now().AddDate(0, 0, -1))
}

// StartOfDay returns 00:00:00 UTC of the given time's day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayString(a) == DayString(b)
}
