package config

import (
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
)

// EngineConfig contains scheduling engine tunables. Slot lists are
// comma-separated HH:MM strings; malformed entries fall back to the built-in
// tables during ToCore.
type EngineConfig struct {
	// Timezone is the club's IANA timezone; all date arithmetic happens here.
	Timezone string `env:"TIMEZONE" envDefault:"America/Indiana/Indianapolis"`

	// SchedulingWindowDays pushes the earliest schedulable date this many days past today.
	SchedulingWindowDays int `env:"SCHEDULING_WINDOW_DAYS" envDefault:"3"`

	// MaxCorePerDay caps Core events per employee per day.
	MaxCorePerDay int `env:"MAX_CORE_PER_DAY" envDefault:"1"`

	// MaxCorePerWeek caps Core events per employee per Sunday-Saturday week.
	MaxCorePerWeek int `env:"MAX_CORE_PER_WEEK" envDefault:"6"`

	// MinDaysToDue is the minimum days-until-due an event must retain to be a bump target.
	MinDaysToDue int `env:"MIN_DAYS_TO_DUE" envDefault:"2"`

	// MaxBumpsPerEvent caps how often one event may be bumped within a run.
	MaxBumpsPerEvent int `env:"MAX_BUMPS_PER_EVENT" envDefault:"3"`

	// CoreSlots overrides the weekday Core arrive-time table.
	CoreSlots []string `env:"CORE_SLOTS" envDefault:""`

	// SundayCoreSlots overrides the Sunday Core arrive-time table.
	SundayCoreSlots []string `env:"SUNDAY_CORE_SLOTS" envDefault:""`
}

// Sanitize applies guardrails to engine configuration values.
func (c *EngineConfig) Sanitize() {
	if c.SchedulingWindowDays < 0 {
		c.SchedulingWindowDays = 3
	}
	if c.MaxCorePerDay <= 0 {
		c.MaxCorePerDay = 1
	}
	if c.MaxCorePerWeek <= 0 {
		c.MaxCorePerWeek = 6
	}
	if c.MinDaysToDue < 0 {
		c.MinDaysToDue = 2
	}
	if c.MaxBumpsPerEvent <= 0 {
		c.MaxBumpsPerEvent = 3
	}
}

// ToCore converts the env-facing configuration into the engine's runtime
// config, starting from the production defaults.
func (c EngineConfig) ToCore() core.EngineConfig {
	out := core.DefaultEngineConfig()
	out.SchedulingWindowDays = c.SchedulingWindowDays
	out.MaxCorePerDay = c.MaxCorePerDay
	out.MaxCorePerWeek = c.MaxCorePerWeek
	out.MinDaysToDue = c.MinDaysToDue
	out.MaxBumpsPerEvent = c.MaxBumpsPerEvent
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		out.Location = loc
	}
	if slots := parseSlots(c.CoreSlots); len(slots) > 0 {
		out.CoreSlots = slots
	}
	if slots := parseSlots(c.SundayCoreSlots); len(slots) > 0 {
		out.SundayCoreSlots = slots
	}
	out.Sanitize()
	return out
}

func parseSlots(raw []string) []core.TimeOfDay {
	var out []core.TimeOfDay
	for _, s := range raw {
		t, err := core.ParseTimeOfDay(s)
		if err != nil {
			return nil
		}
		out = append(out, t)
	}
	return out
}
