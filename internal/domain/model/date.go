package model

import "time"

// DateOf truncates t to midnight of its calendar date, preserving location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date in a's location.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b.In(a.Location())))
}

// DaysBetween returns the calendar-day difference to - from. Both dates are
// re-anchored to UTC midnights before subtracting, so a DST transition between
// them cannot shorten the count.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	u := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f).Hours() / 24)
}

// WeekdayIndex returns the 0=Monday .. 6=Sunday index used by rotation
// assignments and weekly availability.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekStart returns midnight of the Sunday opening the Sunday-Saturday week
// containing t. Weekly Core limits are counted against this boundary.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// AtTime returns the given calendar date with the clock set to h:m.
func AtTime(date time.Time, h, m int) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, date.Location())
}
