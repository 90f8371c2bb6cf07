package model

import (
	"errors"
	"strings"
	"time"
)

// RunType distinguishes manually triggered runs from interval-driven ones.
type RunType string

const (
	RunTypeManual    RunType = "manual"
	RunTypeAutomatic RunType = "automatic"
)

// Valid reports whether the run type is supported.
func (t RunType) Valid() bool {
	return t == RunTypeManual || t == RunTypeAutomatic
}

// RunStatus represents the lifecycle state of a scheduler run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Valid reports whether the run status is supported.
func (s RunStatus) Valid() bool {
	return s == RunStatusRunning || s == RunStatusCompleted || s == RunStatusFailed
}

// SchedulerRun is one batch execution of the auto-scheduler. A run is active
// while it is unapproved and not failed; active runs' pending assignments are
// visible to the validator of later runs.
type SchedulerRun struct {
	ID             string     `json:"id"                       db:"id"`
	RunType        RunType    `json:"run_type"                 db:"run_type"`
	Status         RunStatus  `json:"status"                   db:"status"`
	StartedAt      time.Time  `json:"started_at"               db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"   db:"completed_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"    db:"approved_at"`
	TotalProcessed int        `json:"total_processed"          db:"total_processed"`
	Scheduled      int        `json:"scheduled"                db:"scheduled"`
	Failed         int        `json:"failed"                   db:"failed"`
	RequiringSwaps int        `json:"requiring_swaps"          db:"requiring_swaps"`
	ErrorMessage   *string    `json:"error_message,omitempty"  db:"error_message"`
}

// Active reports whether the run's pending assignments should be visible to
// validators of other runs.
func (r *SchedulerRun) Active() bool {
	return r.ApprovedAt == nil && (r.Status == RunStatusRunning || r.Status == RunStatusCompleted)
}

// AssignmentStatus represents the state of a pending assignment within a run.
type AssignmentStatus string

const (
	AssignmentStatusProposed   AssignmentStatus = "proposed"
	AssignmentStatusSuperseded AssignmentStatus = "superseded"
)

// Valid reports whether the assignment status is supported.
func (s AssignmentStatus) Valid() bool {
	return s == AssignmentStatusProposed || s == AssignmentStatusSuperseded
}

// PendingAssignment is one proposed (or failed) placement produced by a run.
// Invariant: FailureReason, EmployeeID and ScheduleDatetime are all set or all
// nil together - a failure row carries a reason and no placement.
type PendingAssignment struct {
	ID               string           `json:"id"                          db:"id"`
	RunID            string           `json:"run_id"                      db:"run_id"`
	EventRef         int              `json:"event_ref"                   db:"event_ref"`
	EmployeeID       *string          `json:"employee_id,omitempty"       db:"employee_id"`
	ScheduleDatetime *time.Time       `json:"schedule_datetime,omitempty" db:"schedule_datetime"`
	Status           AssignmentStatus `json:"status"                      db:"status"`
	FailureReason    *string          `json:"failure_reason,omitempty"    db:"failure_reason"`
	IsSwap           bool             `json:"is_swap"                     db:"is_swap"`
	BumpedEventRef   *int             `json:"bumped_event_ref,omitempty"  db:"bumped_event_ref"`
	SwapReason       *string          `json:"swap_reason,omitempty"       db:"swap_reason"`
	CreatedAt        time.Time        `json:"created_at"                  db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"                  db:"updated_at"`
}

// CreatePendingAssignmentRequest represents parameters to record a proposal or
// a placement failure within a run.
type CreatePendingAssignmentRequest struct {
	RunID            string     `json:"run_id"`
	EventRef         int        `json:"event_ref"`
	EmployeeID       *string    `json:"employee_id,omitempty"`
	ScheduleDatetime *time.Time `json:"schedule_datetime,omitempty"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	IsSwap           bool       `json:"is_swap"`
	BumpedEventRef   *int       `json:"bumped_event_ref,omitempty"`
	SwapReason       *string    `json:"swap_reason,omitempty"`
}

// Validate enforces the failure invariant: a row either carries a placement
// (employee and datetime, no reason) or a failure (reason, no placement).
func (r *CreatePendingAssignmentRequest) Validate() error {
	if r.RunID == "" {
		return errors.New("run_id is required")
	}
	if r.EventRef <= 0 {
		return errors.New("event_ref must be > 0")
	}
	placed := r.EmployeeID != nil && r.ScheduleDatetime != nil
	failed := r.FailureReason != nil && strings.TrimSpace(*r.FailureReason) != ""
	switch {
	case placed && failed:
		return errors.New("a pending assignment cannot carry both a placement and a failure reason")
	case !placed && !failed:
		return errors.New("a pending assignment needs either a placement or a failure reason")
	case failed && (r.EmployeeID != nil || r.ScheduleDatetime != nil):
		return errors.New("a failed pending assignment cannot carry a partial placement")
	case placed && r.IsSwap && r.BumpedEventRef == nil:
		return errors.New("a swap placement must name the bumped event")
	}
	return nil
}

// Failed reports whether this row records a placement failure.
func (p *PendingAssignment) Failed() bool {
	return p.FailureReason != nil && strings.TrimSpace(*p.FailureReason) != ""
}

// Placed reports whether this row carries a live proposed placement.
func (p *PendingAssignment) Placed() bool {
	return !p.Failed() && p.Status == AssignmentStatusProposed &&
		p.EmployeeID != nil && p.ScheduleDatetime != nil
}
