package model

import (
	"fmt"
	"time"
)

// ViolationType classifies a constraint violation.
type ViolationType string

const (
	ViolationPastDate         ViolationType = "past_date"
	ViolationCompanyHoliday   ViolationType = "company_holiday"
	ViolationTimeOff          ViolationType = "time_off"
	ViolationAvailability     ViolationType = "availability"
	ViolationRole             ViolationType = "role"
	ViolationDailyLimit       ViolationType = "daily_limit"
	ViolationAlreadyScheduled ViolationType = "already_scheduled"
	ViolationDueDate          ViolationType = "due_date"
)

// Bumpable reports whether the violation can be cleared by bumping a
// less-urgent assignment off the contested slot.
func (t ViolationType) Bumpable() bool {
	return t == ViolationDailyLimit || t == ViolationAlreadyScheduled
}

// ViolationSeverity distinguishes blocking violations from advisory ones.
type ViolationSeverity string

const (
	SeverityHard ViolationSeverity = "hard"
	SeveritySoft ViolationSeverity = "soft"
)

// ConstraintViolation is one rule broken by a proposed assignment.
type ConstraintViolation struct {
	Type     ViolationType     `json:"type"`
	Message  string            `json:"message"`
	Severity ViolationSeverity `json:"severity"`
	Details  map[string]any    `json:"details,omitempty"`
}

func (v ConstraintViolation) String() string {
	return fmt.Sprintf("%s (%s): %s", v.Type, v.Severity, v.Message)
}

// ValidationResult is the outcome of validating one (event, employee, datetime)
// triple. IsValid is true when no hard violation is present.
type ValidationResult struct {
	IsValid    bool                  `json:"is_valid"`
	Violations []ConstraintViolation `json:"violations,omitempty"`
}

// Add appends a violation and recomputes validity.
func (r *ValidationResult) Add(v ConstraintViolation) {
	r.Violations = append(r.Violations, v)
	if v.Severity == SeverityHard {
		r.IsValid = false
	}
}

// HardViolations returns only the blocking violations.
func (r *ValidationResult) HardViolations() []ConstraintViolation {
	var out []ConstraintViolation
	for _, v := range r.Violations {
		if v.Severity == SeverityHard {
			out = append(out, v)
		}
	}
	return out
}

// OnlyBumpableViolations reports whether the result is invalid solely because
// of violations a bump could clear (daily limit, overlap).
func (r *ValidationResult) OnlyBumpableViolations() bool {
	hard := r.HardViolations()
	if len(hard) == 0 {
		return false
	}
	for _, v := range hard {
		if !v.Type.Bumpable() {
			return false
		}
	}
	return true
}

// FailureMessage flattens hard violations into a single reason string for
// PendingAssignment.FailureReason.
func (r *ValidationResult) FailureMessage() string {
	hard := r.HardViolations()
	if len(hard) == 0 {
		return ""
	}
	msg := hard[0].Message
	for _, v := range hard[1:] {
		msg += "; " + v.Message
	}
	return msg
}

// SwapProposal describes a legal bump: the high-priority event takes the slot
// of the lower-priority one.
type SwapProposal struct {
	HighPriority *Event    `json:"high_priority"`
	LowPriority  *Event    `json:"low_priority"`
	TargetDate   time.Time `json:"target_date"`
	EmployeeID   string    `json:"employee_id"`
	Reason       string    `json:"reason"`
}

// CapacityStatus summarizes how loaded a date is across the roster.
type CapacityStatus struct {
	Date           time.Time `json:"date"`
	ScheduledCount int       `json:"scheduled_count"`
	TotalEmployees int       `json:"total_employees"`
	CapacityUsed   float64   `json:"capacity_used"`
	Overbooked     bool      `json:"overbooked"`
}
