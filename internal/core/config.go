// Package core defines the ports and shared domain services of the
// demo-scheduler engine. Services depend on these interfaces, not on the data
// layer directly.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// TimeOfDay is a clock time without a date, used for slot tables.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// MustTimeOfDay parses "HH:MM" and panics on malformed input. For static tables.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// On returns the given calendar date with the clock set to the time of day.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// EngineConfig holds the static per-run tunables of the scheduling engine.
type EngineConfig struct {
	// SchedulingWindowDays pushes the earliest schedulable date this many days
	// past today.
	SchedulingWindowDays int
	// MaxCorePerDay caps Core events per employee per day.
	MaxCorePerDay int
	// MaxCorePerWeek caps Core events per employee per Sunday-Saturday week.
	MaxCorePerWeek int
	// MinDaysToDue is the minimum days-until-due an event must retain to be a
	// bump target.
	MinDaysToDue int
	// MaxBumpsPerEvent caps how often one event may be bumped within a run.
	MaxBumpsPerEvent int

	// Location is the club's IANA timezone; all date arithmetic happens here.
	Location *time.Location

	// CoreSlots is the 8-block arrive-time set for Core events.
	CoreSlots []TimeOfDay
	// SundayCoreSlots is the reduced Sunday slot set.
	SundayCoreSlots []TimeOfDay
	// DigitalSetupSlots rotate Setup/Refresh digital events by date.
	DigitalSetupSlots []TimeOfDay
	// DigitalTeardownSlots rotate Teardown digital events by date.
	DigitalTeardownSlots []TimeOfDay

	FreeoskTime          TimeOfDay
	OtherTime            TimeOfDay
	SupervisorTime       TimeOfDay
	JuicerProductionTime TimeOfDay
	JuicerSurveyTime     TimeOfDay
}

// DefaultTimezone is the club's timezone unless configured otherwise.
const DefaultTimezone = "America/Indiana/Indianapolis"

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return EngineConfig{
		SchedulingWindowDays: 3,
		MaxCorePerDay:        1,
		MaxCorePerWeek:       6,
		MinDaysToDue:         2,
		MaxBumpsPerEvent:     3,
		Location:             loc,
		CoreSlots: []TimeOfDay{
			MustTimeOfDay("10:15"), MustTimeOfDay("10:15"),
			MustTimeOfDay("10:45"), MustTimeOfDay("10:45"),
			MustTimeOfDay("11:15"), MustTimeOfDay("11:15"),
			MustTimeOfDay("11:45"), MustTimeOfDay("11:45"),
		},
		SundayCoreSlots: []TimeOfDay{
			MustTimeOfDay("10:45"), MustTimeOfDay("11:15"),
		},
		DigitalSetupSlots: []TimeOfDay{
			MustTimeOfDay("10:15"), MustTimeOfDay("10:30"),
			MustTimeOfDay("10:45"), MustTimeOfDay("11:00"),
		},
		DigitalTeardownSlots: []TimeOfDay{
			MustTimeOfDay("18:00"), MustTimeOfDay("18:15"),
			MustTimeOfDay("18:30"), MustTimeOfDay("18:45"),
			MustTimeOfDay("19:00"), MustTimeOfDay("19:15"),
			MustTimeOfDay("19:30"), MustTimeOfDay("19:45"),
		},
		FreeoskTime:          MustTimeOfDay("10:00"),
		OtherTime:            MustTimeOfDay("11:00"),
		SupervisorTime:       MustTimeOfDay("12:00"),
		JuicerProductionTime: MustTimeOfDay("09:00"),
		JuicerSurveyTime:     MustTimeOfDay("17:00"),
	}
}

// Sanitize applies guardrails to configuration values.
func (c *EngineConfig) Sanitize() {
	def := DefaultEngineConfig()
	if c.SchedulingWindowDays < 0 {
		c.SchedulingWindowDays = def.SchedulingWindowDays
	}
	if c.MaxCorePerDay <= 0 {
		c.MaxCorePerDay = def.MaxCorePerDay
	}
	if c.MaxCorePerWeek <= 0 {
		c.MaxCorePerWeek = def.MaxCorePerWeek
	}
	if c.MinDaysToDue < 0 {
		c.MinDaysToDue = def.MinDaysToDue
	}
	if c.MaxBumpsPerEvent <= 0 {
		c.MaxBumpsPerEvent = def.MaxBumpsPerEvent
	}
	if c.Location == nil {
		c.Location = def.Location
	}
	if len(c.CoreSlots) == 0 {
		c.CoreSlots = def.CoreSlots
	}
	if len(c.SundayCoreSlots) == 0 {
		c.SundayCoreSlots = def.SundayCoreSlots
	}
	if len(c.DigitalSetupSlots) == 0 {
		c.DigitalSetupSlots = def.DigitalSetupSlots
	}
	if len(c.DigitalTeardownSlots) == 0 {
		c.DigitalTeardownSlots = def.DigitalTeardownSlots
	}
}

// CoreSlotsFor returns the Core slot set in effect for the given date.
func (c *EngineConfig) CoreSlotsFor(date time.Time) []TimeOfDay {
	if date.Weekday() == time.Sunday {
		return c.SundayCoreSlots
	}
	return c.CoreSlots
}

// JuicerTimeFor returns the arrive time for a juicer event type. Deep cleans
// follow the production slot.
func (c *EngineConfig) JuicerTimeFor(t model.EventType) TimeOfDay {
	if t == model.EventTypeJuicerSurvey {
		return c.JuicerSurveyTime
	}
	return c.JuicerProductionTime
}
