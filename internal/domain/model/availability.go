package model

import (
	"errors"
	"time"
)

// TimeOff is an inclusive date range during which an employee cannot be scheduled.
type TimeOff struct {
	ID         string    `json:"id"          db:"id"`
	EmployeeID string    `json:"employee_id" db:"employee_id"`
	StartDate  time.Time `json:"start_date"  db:"start_date"`
	EndDate    time.Time `json:"end_date"    db:"end_date"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Covers reports whether the given date falls inside the time-off range.
func (t *TimeOff) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(t.StartDate)) && !d.After(DateOf(t.EndDate))
}

// CreateTimeOffRequest represents parameters to record time off.
type CreateTimeOffRequest struct {
	EmployeeID string    `json:"employee_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// Validate validates CreateTimeOffRequest.
func (r *CreateTimeOffRequest) Validate() error {
	if r.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return errors.New("start_date and end_date are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return errors.New("end_date must not be before start_date")
	}
	return nil
}

// WeeklyAvailability holds per-weekday base eligibility flags for one employee.
// Days index 0=Monday .. 6=Sunday.
type WeeklyAvailability struct {
	EmployeeID string    `json:"employee_id" db:"employee_id"`
	Monday     bool      `json:"monday"      db:"monday"`
	Tuesday    bool      `json:"tuesday"     db:"tuesday"`
	Wednesday  bool      `json:"wednesday"   db:"wednesday"`
	Thursday   bool      `json:"thursday"    db:"thursday"`
	Friday     bool      `json:"friday"      db:"friday"`
	Saturday   bool      `json:"saturday"    db:"saturday"`
	Sunday     bool      `json:"sunday"      db:"sunday"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// AvailableOn reports whether the employee is available on the weekday of date.
func (w *WeeklyAvailability) AvailableOn(date time.Time) bool {
	switch WeekdayIndex(date) {
	case 0:
		return w.Monday
	case 1:
		return w.Tuesday
	case 2:
		return w.Wednesday
	case 3:
		return w.Thursday
	case 4:
		return w.Friday
	case 5:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// FullWeekAvailability returns an availability row with every day enabled,
// the default for employees without an explicit record.
func FullWeekAvailability(employeeID string) *WeeklyAvailability {
	return &WeeklyAvailability{
		EmployeeID: employeeID,
		Monday:     true,
		Tuesday:    true,
		Wednesday:  true,
		Thursday:   true,
		Friday:     true,
		Saturday:   true,
		Sunday:     true,
	}
}

// CompanyHoliday is a date on which no employee may be scheduled.
type CompanyHoliday struct {
	ID        string    `json:"id"         db:"id"`
	Date      time.Time `json:"date"       db:"date"`
	Name      string    `json:"name"       db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
