// Package memrepo provides in-memory implementations of the core repository
// ports. They mirror the ordering and uniqueness guarantees of the Postgres
// repositories so service tests run without a database.
package memrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store aggregates every in-memory repository over one shared lock, wired the
// way the Postgres schema joins them.
type Store struct {
	Employees    *EmployeeRepo
	Events       *EventRepo
	Schedules    *ScheduleRepo
	Pendings     *PendingAssignmentRepo
	Rotations    *RotationRepo
	TimeOff      *TimeOffRepo
	Availability *AvailabilityRepo
	Holidays     *HolidayRepo
	Runs         *SchedulerRunRepo
}

// NewStore creates an empty Store.
func NewStore() *Store {
	mu := &sync.Mutex{}
	events := &EventRepo{mu: mu}
	return &Store{
		Employees:    &EmployeeRepo{mu: mu},
		Events:       events,
		Schedules:    &ScheduleRepo{mu: mu, events: events},
		Pendings:     &PendingAssignmentRepo{mu: mu, events: events},
		Rotations:    &RotationRepo{mu: mu},
		TimeOff:      &TimeOffRepo{mu: mu},
		Availability: &AvailabilityRepo{mu: mu},
		Holidays:     &HolidayRepo{mu: mu},
		Runs:         &SchedulerRunRepo{mu: mu},
	}
}

func newID() string {
	return uuid.New().String()
}

func now() time.Time {
	return time.Now().UTC()
}
