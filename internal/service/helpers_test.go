package service_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/mocks/memrepo"
	"github.com/fieldops/demo-scheduler/internal/service"
)

// testNow is the fixed reference time of the service tests:
// Monday 2026-03-02 08:00 UTC. With the default three-day scheduling window,
// Friday 2026-03-06 is the first date outside the short-notice range.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func at(offset, hour, minute int) time.Time {
	d := day(offset)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func testConfig() *core.EngineConfig {
	cfg := core.DefaultEngineConfig()
	cfg.Location = time.UTC
	return &cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fixture wires the full service stack over in-memory repositories with a
// frozen clock.
type fixture struct {
	store     *memrepo.Store
	clock     *data.FixedTimeProvider
	roster    *core.RosterCacheService
	validator *service.ConstraintValidatorService
	rotations *service.RotationManagerService
	conflicts *service.ConflictResolverService
	engine    *service.SchedulingEngineService
}

// newFixture builds the stack. A nil notifier keeps the no-op default.
func newFixture(t *testing.T, notifier core.BumpNotifier) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, notifier, testConfig())
}

// newFixtureWithConfig builds the stack with a caller-supplied engine config,
// for tests that tighten limits like the bump cap.
func newFixtureWithConfig(t *testing.T, notifier core.BumpNotifier, cfg *core.EngineConfig) *fixture {
	t.Helper()

	store := memrepo.NewStore()
	clock := data.NewFixedTimeProvider(testNow)
	logger := quietLogger()

	roster := core.NewRosterCacheService(core.RosterCacheServiceOptions{
		Employees: store.Employees,
	})
	validator := service.NewConstraintValidatorService(service.ConstraintValidatorOptions{
		Schedules:    store.Schedules,
		Pendings:     store.Pendings,
		Runs:         store.Runs,
		TimeOff:      store.TimeOff,
		Availability: store.Availability,
		Holidays:     store.Holidays,
		Roster:       roster,
		Config:       cfg,
		TimeProvider: clock,
		Logger:       logger,
	})
	rotations := service.NewRotationManagerService(service.RotationManagerOptions{
		Rotations: store.Rotations,
		Roster:    roster,
		Logger:    logger,
	})
	conflicts := service.NewConflictResolverService(service.ConflictResolverOptions{
		Schedules:    store.Schedules,
		Holidays:     store.Holidays,
		Roster:       roster,
		Config:       cfg,
		TimeProvider: clock,
		Logger:       logger,
	})
	engine := service.NewSchedulingEngineService(service.SchedulingEngineOptions{
		Events:       store.Events,
		Schedules:    store.Schedules,
		Pendings:     store.Pendings,
		Runs:         store.Runs,
		Roster:       roster,
		Validator:    validator,
		Rotations:    rotations,
		Conflicts:    conflicts,
		Notifier:     notifier,
		Config:       cfg,
		TimeProvider: clock,
		Logger:       logger,
	})

	return &fixture{
		store:     store,
		clock:     clock,
		roster:    roster,
		validator: validator,
		rotations: rotations,
		conflicts: conflicts,
		engine:    engine,
	}
}

// seedStandardRoster loads a representative club roster. Names sort in the
// order listed, which is also the ListActive order.
func (f *fixture) seedStandardRoster() {
	f.store.Employees.Seed(
		&model.Employee{ID: "sup-dana", Name: "Dana", JobTitle: model.JobTitleClubSupervisor, Active: true},
		&model.Employee{ID: "jb-jess", Name: "Jess", JobTitle: model.JobTitleJuicerBarista, Active: true, JuicerTrained: true},
		&model.Employee{ID: "lead-liam", Name: "Liam", JobTitle: model.JobTitleLeadEventSpecialist, Active: true},
		&model.Employee{ID: "lead-mira", Name: "Mira", JobTitle: model.JobTitleLeadEventSpecialist, Active: true},
		&model.Employee{ID: "es-sam", Name: "Sam", JobTitle: model.JobTitleEventSpecialist, Active: true},
	)
}

func coreEvent(ref int, name string, startOffset, dueOffset int) *model.Event {
	return &model.Event{
		ProjectRef:               ref,
		Name:                     name,
		Type:                     model.EventTypeCore,
		StartDatetime:            day(startOffset),
		DueDatetime:              day(dueOffset),
		EstimatedDurationMinutes: 360,
		Condition:                model.EventConditionUnstaffed,
	}
}

func typedEvent(ref int, name string, t model.EventType, startOffset, dueOffset, duration int) *model.Event {
	return &model.Event{
		ProjectRef:               ref,
		Name:                     name,
		Type:                     t,
		StartDatetime:            day(startOffset),
		DueDatetime:              day(dueOffset),
		EstimatedDurationMinutes: duration,
		Condition:                model.EventConditionUnstaffed,
	}
}
