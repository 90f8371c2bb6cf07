package model

import (
	"errors"
	"time"
)

// Schedule is a committed assignment already published to the external
// work-order system. Bumping one requires republication downstream.
type Schedule struct {
	ID               string    `json:"id"                db:"id"`
	EventRef         int       `json:"event_ref"         db:"event_ref"`
	EmployeeID       string    `json:"employee_id"       db:"employee_id"`
	ScheduleDatetime time.Time `json:"schedule_datetime" db:"schedule_datetime"`
	CreatedAt        time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"        db:"updated_at"`
}

// CreateScheduleRequest represents parameters to commit a schedule row.
type CreateScheduleRequest struct {
	EventRef         int       `json:"event_ref"`
	EmployeeID       string    `json:"employee_id"`
	ScheduleDatetime time.Time `json:"schedule_datetime"`
}

// Validate validates CreateScheduleRequest.
func (r *CreateScheduleRequest) Validate() error {
	if r.EventRef <= 0 {
		return errors.New("event_ref must be > 0")
	}
	if r.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if r.ScheduleDatetime.IsZero() {
		return errors.New("schedule_datetime is required")
	}
	return nil
}

// ScheduleSource discriminates where a scheduled-like item lives.
type ScheduleSource string

const (
	// ScheduleSourceCommitted marks rows from the published schedule table.
	ScheduleSourceCommitted ScheduleSource = "committed"
	// ScheduleSourcePending marks proposals from an active scheduler run.
	ScheduleSourcePending ScheduleSource = "pending"
)

// ScheduledItem is the shared shape of a committed schedule and a pending
// assignment: both join against an event and both can be bump targets.
type ScheduledItem struct {
	Source           ScheduleSource `json:"source"`
	ID               string         `json:"id"`
	RunID            string         `json:"run_id,omitempty"`
	EventRef         int            `json:"event_ref"`
	EmployeeID       string         `json:"employee_id"`
	ScheduleDatetime time.Time      `json:"schedule_datetime"`
	Event            *Event         `json:"event,omitempty"`
}

// Interval returns the occupied time interval [start, start+duration) for the
// item, using the joined event's estimated duration. Items without a joined
// event occupy a zero-length interval.
func (s *ScheduledItem) Interval() (time.Time, time.Time) {
	end := s.ScheduleDatetime
	if s.Event != nil && s.Event.EstimatedDurationMinutes > 0 {
		end = end.Add(time.Duration(s.Event.EstimatedDurationMinutes) * time.Minute)
	}
	return s.ScheduleDatetime, end
}
