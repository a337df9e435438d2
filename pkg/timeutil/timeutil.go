// Package timeutil provides small day-granularity helpers used by recency
// decay and reconciliation scheduling.
package timeutil

import "time"

// HoursPerDay is used for fractional day arithmetic.
const HoursPerDay = 24.0

// DaysBetween returns the fractional number of days from `from` to `to`.
// Negative when `to` precedes `from`.
func DaysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / HoursPerDay
}

// DaysSince returns the fractional age of t relative to now, floored at zero
// so clock skew never produces negative ages.
func DaysSince(t, now time.Time) float64 {
	days := DaysBetween(t, now)
	if days < 0 {
		return 0
	}
	return days
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
