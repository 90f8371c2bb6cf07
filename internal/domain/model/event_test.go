package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		input string
		want  EventType
		ok    bool
	}{
		{"core", EventTypeCore, true},
		{" CORE ", EventTypeCore, true},
		{"juicer_production", EventTypeJuicerProduction, true},
		{"digitals", EventTypeDigitals, true},
		{"nonsense", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseEventType(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestEventNumber(t *testing.T) {
	ev := &Event{Name: "Core Demo 450002"}
	num, ok := ev.EventNumber()
	require.True(t, ok)
	assert.Equal(t, "450002", num)

	ev = &Event{Name: "Juicer Production"}
	_, ok = ev.EventNumber()
	assert.False(t, ok)

	// First 6-digit run wins when several are present.
	ev = &Event{Name: "Core 123456 and 654321"}
	num, ok = ev.EventNumber()
	require.True(t, ok)
	assert.Equal(t, "123456", num)

	// A 7-digit run still yields its first 6 digits; the convention only
	// guarantees 6-digit numbers in real exports.
	ev = &Event{Name: "Core 1234567"}
	num, ok = ev.EventNumber()
	require.True(t, ok)
	assert.Equal(t, "123456", num)
}

func TestDigitalSubtype(t *testing.T) {
	tests := []struct {
		name string
		want DigitalSubtype
	}{
		{"Digital Setup 450005", DigitalSubtypeSetup},
		{"Digital REFRESH weekly", DigitalSubtypeRefresh},
		{"Digital Teardown 450005", DigitalSubtypeTeardown},
		{"Digital Mystery", DigitalSubtypeUnknown},
	}
	for _, tt := range tests {
		ev := &Event{Name: tt.name, Type: EventTypeDigitals}
		assert.Equal(t, tt.want, ev.DigitalSubtype(), tt.name)
	}
}

func TestScheduleTypePriority(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want int
	}{
		{"juicer production", Event{Type: EventTypeJuicerProduction}, 1},
		{"juicer survey", Event{Type: EventTypeJuicerSurvey}, 1},
		{"digital setup", Event{Type: EventTypeDigitals, Name: "Digital Setup"}, 2},
		{"digital refresh", Event{Type: EventTypeDigitals, Name: "Digital Refresh"}, 3},
		{"freeosk", Event{Type: EventTypeFreeosk}, 4},
		{"digital teardown", Event{Type: EventTypeDigitals, Name: "Digital Teardown"}, 5},
		{"core", Event{Type: EventTypeCore}, 6},
		{"supervisor", Event{Type: EventTypeSupervisor}, 7},
		{"digital unknown", Event{Type: EventTypeDigitals, Name: "Digital"}, 8},
		{"other", Event{Type: EventTypeOther}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.ScheduleTypePriority())
		})
	}
}

func TestDaysUntilDue(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 2, 8, 30, 0, 0, loc)

	ev := &Event{DueDatetime: time.Date(2026, 3, 9, 23, 0, 0, 0, loc)}
	assert.Equal(t, 7, ev.DaysUntilDue(today, loc))

	// Same calendar date counts as zero days regardless of clock time.
	ev = &Event{DueDatetime: time.Date(2026, 3, 2, 23, 59, 0, 0, loc)}
	assert.Equal(t, 0, ev.DaysUntilDue(today, loc))

	ev = &Event{DueDatetime: time.Date(2026, 2, 28, 10, 0, 0, 0, loc)}
	assert.Equal(t, -2, ev.DaysUntilDue(today, loc))
}

func TestDaysUntilDueAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/Indiana/Indianapolis")
	require.NoError(t, err)

	// 2026-03-08 02:00 springs forward, so the wall-clock gap is 95 hours.
	// The count is still four calendar days.
	today := time.Date(2026, 3, 5, 8, 0, 0, 0, loc)
	ev := &Event{DueDatetime: time.Date(2026, 3, 9, 7, 0, 0, 0, loc)}
	assert.Equal(t, 4, ev.DaysUntilDue(today, loc))
}

func TestWithinWindow(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	ev := &Event{StartDatetime: start, DueDatetime: due}

	assert.True(t, ev.WithinWindow(start))
	assert.True(t, ev.WithinWindow(due.Add(-time.Minute)))
	assert.False(t, ev.WithinWindow(due), "due side is strict")
	assert.False(t, ev.WithinWindow(start.Add(-time.Second)))
}

func TestCreateEventRequestValidate(t *testing.T) {
	valid := func() CreateEventRequest {
		return CreateEventRequest{
			ProjectRef:               450001,
			Name:                     "Core Demo",
			Type:                     EventTypeCore,
			StartDatetime:            time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			DueDatetime:              time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			EstimatedDurationMinutes: 360,
		}
	}

	req := valid()
	require.NoError(t, req.Validate())
	assert.Equal(t, EventConditionUnstaffed, req.Condition, "condition defaults to unstaffed")

	req = valid()
	req.ProjectRef = 0
	assert.Error(t, req.Validate())

	req = valid()
	req.Name = "  "
	assert.Error(t, req.Validate())

	req = valid()
	req.StartDatetime, req.DueDatetime = req.DueDatetime, req.StartDatetime
	assert.Error(t, req.Validate())

	req = valid()
	req.EstimatedDurationMinutes = 0
	assert.Error(t, req.Validate())

	req = valid()
	req.Condition = EventCondition("bogus")
	assert.Error(t, req.Validate())
}
