package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayIndex(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, WeekdayIndex(monday.AddDate(0, 0, i)))
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-03-04 is a Wednesday; the Sunday-Saturday week opens 2026-03-01.
	wed := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, WeekStart(wed))

	// A Sunday opens its own week.
	assert.Equal(t, want, WeekStart(want.Add(5*time.Hour)))

	// Saturday still belongs to the same week.
	sat := time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, want, WeekStart(sat))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(a, a.Add(10*time.Hour)))
	assert.Equal(t, 1, DaysBetween(a, a.AddDate(0, 0, 1)))
	assert.Equal(t, -3, DaysBetween(a, a.AddDate(0, 0, -3)))

	// Crossing spring-forward leaves only 23 wall-clock hours in the transition
	// day; the calendar-day count must not truncate.
	loc, err := time.LoadLocation("America/Indiana/Indianapolis")
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	to := time.Date(2026, 3, 8, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(from, to))
	assert.Equal(t, 4, DaysBetween(from, to.AddDate(0, 0, 3)))
}

func TestSameDate(t *testing.T) {
	a := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameDate(a, b))
	assert.False(t, SameDate(a, b.AddDate(0, 0, 1)))
}

func TestAtTime(t *testing.T) {
	date := time.Date(2026, 3, 2, 17, 45, 12, 0, time.UTC)
	got := AtTime(date, 10, 15)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC), got)
}
