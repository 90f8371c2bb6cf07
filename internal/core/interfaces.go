package core

import (
	"context"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// This file contains repository interface definitions (ports). The service
// layer depends on these contracts; internal/data provides the Postgres
// implementations and internal/mocks/memrepo the in-memory ones.

// EmployeeRepository defines data operations on the employee roster.
type EmployeeRepository interface {
	Create(ctx context.Context, req *model.CreateEmployeeRequest) (*model.Employee, error)
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	// ListActive returns active employees in stable order (name, then id).
	ListActive(ctx context.Context) ([]*model.Employee, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
}

// EventRepository defines data operations on work-order events.
type EventRepository interface {
	Upsert(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error)
	GetByRef(ctx context.Context, projectRef int) (*model.Event, error)
	// ListUnscheduled returns unstaffed, unscheduled events whose due datetime
	// has not passed, in stable (due, ref) order.
	ListUnscheduled(ctx context.Context, now time.Time) ([]*model.Event, error)
	// FindScheduledEventByNumber returns the first scheduled event of the given
	// type whose name embeds the 6-digit number, or nil. Supervisor pairing
	// against earlier runs relies on this.
	FindScheduledEventByNumber(ctx context.Context, t model.EventType, number string) (*model.Event, error)
	SetScheduled(ctx context.Context, projectRef int, scheduled bool) error
}

// ScheduleRepository defines data operations on committed (published) schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, req *model.CreateScheduleRequest) (*model.Schedule, error)
	Delete(ctx context.Context, id string) (bool, error)
	// GetByEventRef returns the committed schedule for an event, or nil.
	GetByEventRef(ctx context.Context, projectRef int) (*model.Schedule, error)
	// UpdateDatetime moves a committed schedule in place (forward-move).
	UpdateDatetime(ctx context.Context, id string, at time.Time) error
	// ItemsOnDate returns committed schedules on a calendar date with their
	// events joined, ordered by schedule time then event ref.
	ItemsOnDate(ctx context.Context, date time.Time) ([]*model.ScheduledItem, error)
	// ItemsForEmployeeBetween returns an employee's committed schedules in
	// [start, end) with events joined.
	ItemsForEmployeeBetween(ctx context.Context, employeeID string, start, end time.Time) ([]*model.ScheduledItem, error)
}

// PendingAssignmentRepository defines data operations on run proposals.
type PendingAssignmentRepository interface {
	Create(ctx context.Context, req *model.CreatePendingAssignmentRequest) (*model.PendingAssignment, error)
	Delete(ctx context.Context, id string) (bool, error)
	// UpdatePlacement moves a placed proposal to a new employee/datetime.
	UpdatePlacement(ctx context.Context, id string, employeeID string, at time.Time) error
	GetByID(ctx context.Context, id string) (*model.PendingAssignment, error)
	GetByRunAndEvent(ctx context.Context, runID string, projectRef int) (*model.PendingAssignment, error)
	ListByRun(ctx context.Context, runID string) ([]*model.PendingAssignment, error)
	// MarkSupersededForEvent marks proposals for the event in every run except
	// excludeRunID as superseded; returns rows affected.
	MarkSupersededForEvent(ctx context.Context, projectRef int, excludeRunID string) (int, error)
	// ItemsOnDate returns placed proposals from the given runs on a calendar
	// date with events joined. Failure and superseded rows are excluded.
	ItemsOnDate(ctx context.Context, runIDs []string, date time.Time) ([]*model.ScheduledItem, error)
	// ItemsForEmployeeBetween returns an employee's placed proposals from the
	// given runs in [start, end) with events joined.
	ItemsForEmployeeBetween(ctx context.Context, params PendingItemsParams) ([]*model.ScheduledItem, error)
}

// PendingItemsParams groups arguments for ItemsForEmployeeBetween to keep the
// parameter count down.
type PendingItemsParams struct {
	RunIDs     []string
	EmployeeID string
	Start      time.Time
	End        time.Time
}

// RotationRepository defines data operations on weekly rotations and their
// one-time exceptions.
type RotationRepository interface {
	GetAssignment(ctx context.Context, dayOfWeek int, rt model.RotationType) (*model.RotationAssignment, error)
	ListAssignments(ctx context.Context) ([]*model.RotationAssignment, error)
	Upsert(ctx context.Context, req *model.SetRotationRequest) (*model.RotationAssignment, error)
	// ReplaceAll atomically deletes and reinserts the full rotation table.
	ReplaceAll(ctx context.Context, reqs []*model.SetRotationRequest) error
	UpsertException(ctx context.Context, req *model.AddRotationExceptionRequest) (*model.RotationException, error)
	// GetException returns the override for (date, rotation type), or nil.
	GetException(ctx context.Context, date time.Time, rt model.RotationType) (*model.RotationException, error)
	// ListExceptions returns overrides with dates in [start, end], both inclusive.
	ListExceptions(ctx context.Context, start, end time.Time) ([]*model.RotationException, error)
	DeleteException(ctx context.Context, id string) (bool, error)
}

// TimeOffRepository defines data operations on time-off records.
type TimeOffRepository interface {
	Create(ctx context.Context, req *model.CreateTimeOffRequest) (*model.TimeOff, error)
	// HasTimeOff reports whether the employee has time off covering the date.
	HasTimeOff(ctx context.Context, employeeID string, date time.Time) (bool, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]*model.TimeOff, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AvailabilityRepository defines data operations on weekly availability flags.
type AvailabilityRepository interface {
	// GetForEmployee returns the employee's row, or nil when none exists;
	// callers treat a missing row as full-week availability.
	GetForEmployee(ctx context.Context, employeeID string) (*model.WeeklyAvailability, error)
	Upsert(ctx context.Context, av *model.WeeklyAvailability) error
}

// HolidayRepository defines data operations on company holidays.
type HolidayRepository interface {
	Create(ctx context.Context, date time.Time, name string) (*model.CompanyHoliday, error)
	// GetByDate returns the holiday on the given date, or nil.
	GetByDate(ctx context.Context, date time.Time) (*model.CompanyHoliday, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]*model.CompanyHoliday, error)
}

// SchedulerRunRepository defines data operations on scheduler runs.
type SchedulerRunRepository interface {
	Create(ctx context.Context, runType model.RunType, startedAt time.Time) (*model.SchedulerRun, error)
	GetByID(ctx context.Context, id string) (*model.SchedulerRun, error)
	// Update writes status, counters, completion time and error message.
	Update(ctx context.Context, run *model.SchedulerRun) error
	// ListActiveIDs returns ids of runs with approved_at IS NULL and status in
	// (running, completed), oldest first.
	ListActiveIDs(ctx context.Context) ([]string, error)
	// Approve stamps approved_at; only completed runs may be approved.
	Approve(ctx context.Context, id string, at time.Time) error
}

// RosterProvider supplies the active employee roster in stable order.
// RosterCacheService is the production implementation.
type RosterProvider interface {
	ActiveEmployees(ctx context.Context) ([]*model.Employee, error)
}

// RankParams groups arguments for EmployeeRanker.Rank.
type RankParams struct {
	Event      *model.Event
	Date       time.Time
	Candidates []*model.Employee
}

// EmployeeRanker orders candidate employees for an event. Implementations may
// be ML-backed; when disabled the engine keeps its deterministic rule-based
// pool order.
type EmployeeRanker interface {
	Rank(ctx context.Context, params RankParams) ([]*model.Employee, error)
}

// BumpNotification describes a committed schedule displaced by a bump. The
// external work-order system needs a republication that is out of scope here.
type BumpNotification struct {
	Schedule *model.Schedule
	BumpedBy *model.Event
	Reason   string
}

// BumpNotifier is the hook invoked when a committed schedule is bumped.
type BumpNotifier interface {
	ScheduleBumped(ctx context.Context, n BumpNotification) error
}

// NoopBumpNotifier discards bump notifications.
type NoopBumpNotifier struct{}

// ScheduleBumped implements BumpNotifier.
func (NoopBumpNotifier) ScheduleBumped(context.Context, BumpNotification) error { return nil }
