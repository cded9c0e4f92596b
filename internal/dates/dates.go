// Package dates holds the calendar arithmetic shared by every view:
// local-date parsing, day differences and month/week grids.
//
// All dates are local calendar days. Strings are parsed by splitting the
// year, month and day apart and building the value with time.Date in
// time.Local, so a "YYYY-MM-DD" never goes through a UTC parse and never
// drifts a day in negative-offset zones.
package dates

import (
	"strconv"
	"strings"
	"time"
)

// Layout is the ISO calendar-date layout used for every stored date.
const Layout = "2006-01-02"

// now is swapped in tests.
var now = time.Now

// Parse splits a "YYYY-MM-DD" string into its parts and returns local
// midnight of that day. ok is false when the string does not have three
// numeric parts. Out-of-range parts normalise the way time.Date does
// (2026-02-30 is 2026-03-02).
func Parse(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), true
}

// ParseLocalDate is the lenient form of Parse: empty or malformed input
// yields the current time instead of an error, so irregular persisted
// records still render.
func ParseLocalDate(s string) time.Time {
	t, ok := Parse(s)
	if !ok {
		return now()
	}
	return t
}

// Valid reports whether s is a well-formed calendar date that does not
// need normalising.
func Valid(s string) bool {
	t, ok := Parse(s)
	return ok && Format(t) == strings.TrimSpace(s)
}

// Format renders t as a local "YYYY-MM-DD".
func Format(t time.Time) string {
	return t.In(time.Local).Format(Layout)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Today is local midnight of the current day.
func Today() time.Time {
	return StartOfDay(now())
}

// AddDays moves t by n calendar days, keeping it at midnight.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b. It is
// positive when b is after a and negative when b is before a; times of day
// are ignored. The subtraction runs on civil dates so that a DST change
// between a and b never rounds the result by a day.
func DaysBetween(a, b time.Time) int {
	a = a.In(time.Local)
	b = b.In(time.Local)
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MonthGrid lays out a month for a Monday-first calendar. The result starts
// with zero time.Time values as empty slots so that day 1 lands in its
// weekday column, followed by one date per day of the month.
func MonthGrid(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	lead := mondayOffset(first)
	days := first.AddDate(0, 1, -1).Day()

	grid := make([]time.Time, lead, lead+days)
	for d := 1; d <= days; d++ {
		grid = append(grid, time.Date(year, month, d, 0, 0, 0, 0, time.Local))
	}
	return grid
}

// WeekDays returns Monday through Sunday of the week containing t.
func WeekDays(t time.Time) []time.Time {
	monday, _ := WeekBounds(t)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = monday.AddDate(0, 0, i)
	}
	return out
}

// WeekBounds returns local midnight of the Monday and of the Sunday of the
// week containing t.
func WeekBounds(t time.Time) (monday, sunday time.Time) {
	day := StartOfDay(t)
	monday = day.AddDate(0, 0, -mondayOffset(day))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}
