// Package model defines the core data types for the demo-scheduler event
// assignment system.
package model

import (
	"errors"
	"strings"
	"time"
)

// JobTitle represents an employee's role in the club.
type JobTitle string

const (
	// JobTitleJuicerBarista staffs juicer production and survey shifts.
	JobTitleJuicerBarista JobTitle = "juicer_barista"
	// JobTitleLeadEventSpecialist runs lead-only events (Freeosk, Digitals, Other).
	JobTitleLeadEventSpecialist JobTitle = "lead_event_specialist"
	// JobTitleEventSpecialist staffs Core demo events.
	JobTitleEventSpecialist JobTitle = "event_specialist"
	// JobTitleClubSupervisor covers supervisor checkpoints and fills in for leads and juicers.
	JobTitleClubSupervisor JobTitle = "club_supervisor"
)

// Valid reports whether the job title is one of the supported roles.
func (t JobTitle) Valid() bool {
	switch t {
	case JobTitleJuicerBarista, JobTitleLeadEventSpecialist, JobTitleEventSpecialist, JobTitleClubSupervisor:
		return true
	default:
		return false
	}
}

// ParseJobTitle normalizes a job title string and reports whether it is supported.
func ParseJobTitle(value string) (JobTitle, bool) {
	t := JobTitle(strings.ToLower(strings.TrimSpace(value)))
	if t.Valid() {
		return t, true
	}
	return "", false
}

// IsLead reports whether the title qualifies for lead-only event types.
func (t JobTitle) IsLead() bool {
	return t == JobTitleLeadEventSpecialist || t == JobTitleClubSupervisor
}

// Employee represents a club employee on the roster.
type Employee struct {
	ID            string    `json:"id"             db:"id"`
	Name          string    `json:"name"           db:"name"`
	JobTitle      JobTitle  `json:"job_title"      db:"job_title"`
	Active        bool      `json:"active"         db:"active"`
	JuicerTrained bool      `json:"juicer_trained" db:"juicer_trained"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// CanRunJuicerEvents reports whether the employee may staff juicer events.
func (e *Employee) CanRunJuicerEvents() bool {
	return e.JobTitle == JobTitleJuicerBarista || e.JobTitle == JobTitleClubSupervisor
}

// CreateEmployeeRequest represents parameters to create an Employee.
type CreateEmployeeRequest struct {
	Name          string   `json:"name"`
	JobTitle      JobTitle `json:"job_title"`
	Active        *bool    `json:"active,omitempty"`
	JuicerTrained bool     `json:"juicer_trained"`
}

// Validate validates CreateEmployeeRequest.
func (r *CreateEmployeeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if !r.JobTitle.Valid() {
		return errors.New("invalid job_title")
	}
	return nil
}
