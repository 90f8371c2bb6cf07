package model

import (
	"errors"
	"strings"
	"time"
)

// RotationType represents a weekly rotation role.
type RotationType string

const (
	// RotationTypeJuicer is the juicer-bar rotation.
	RotationTypeJuicer RotationType = "juicer"
	// RotationTypePrimaryLead is the primary lead rotation.
	RotationTypePrimaryLead RotationType = "primary_lead"
)

// Valid reports whether the rotation type is supported.
func (t RotationType) Valid() bool {
	return t == RotationTypeJuicer || t == RotationTypePrimaryLead
}

// ParseRotationType normalizes a rotation type string and reports whether it is supported.
func ParseRotationType(value string) (RotationType, bool) {
	t := RotationType(strings.ToLower(strings.TrimSpace(value)))
	if t.Valid() {
		return t, true
	}
	return "", false
}

// RotationAssignment maps (day_of_week, rotation_type) to a primary employee
// and an optional backup. Unique on the pair.
type RotationAssignment struct {
	ID                string       `json:"id"                           db:"id"`
	DayOfWeek         int          `json:"day_of_week"                  db:"day_of_week"`
	RotationType      RotationType `json:"rotation_type"                db:"rotation_type"`
	PrimaryEmployeeID string       `json:"primary_employee_id"          db:"primary_employee_id"`
	BackupEmployeeID  *string      `json:"backup_employee_id,omitempty" db:"backup_employee_id"`
	CreatedAt         time.Time    `json:"created_at"                   db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"                   db:"updated_at"`
}

// RotationException is a one-time override of the weekly rotation for a date.
type RotationException struct {
	ID           string       `json:"id"               db:"id"`
	Date         time.Time    `json:"date"             db:"date"`
	RotationType RotationType `json:"rotation_type"    db:"rotation_type"`
	EmployeeID   string       `json:"employee_id"      db:"employee_id"`
	Reason       *string      `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time    `json:"created_at"       db:"created_at"`
}

// SetRotationRequest represents parameters for a single rotation upsert.
type SetRotationRequest struct {
	DayOfWeek         int          `json:"day_of_week"`
	RotationType      RotationType `json:"rotation_type"`
	PrimaryEmployeeID string       `json:"primary_employee_id"`
	BackupEmployeeID  *string      `json:"backup_employee_id,omitempty"`
}

// Validate validates SetRotationRequest.
func (r *SetRotationRequest) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return errors.New("day_of_week must be in [0..6]")
	}
	if !r.RotationType.Valid() {
		return errors.New("invalid rotation_type")
	}
	if strings.TrimSpace(r.PrimaryEmployeeID) == "" {
		return errors.New("primary_employee_id is required")
	}
	return nil
}

// AddRotationExceptionRequest represents parameters for an exception upsert,
// keyed on (date, rotation_type).
type AddRotationExceptionRequest struct {
	Date         time.Time    `json:"date"`
	RotationType RotationType `json:"rotation_type"`
	EmployeeID   string       `json:"employee_id"`
	Reason       *string      `json:"reason,omitempty"`
}

// Validate validates AddRotationExceptionRequest.
func (r *AddRotationExceptionRequest) Validate() error {
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	if !r.RotationType.Valid() {
		return errors.New("invalid rotation_type")
	}
	if strings.TrimSpace(r.EmployeeID) == "" {
		return errors.New("employee_id is required")
	}
	return nil
}
