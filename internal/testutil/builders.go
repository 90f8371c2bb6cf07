package testutil

import (
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// EmployeeBuilder provides a fluent interface for building Employee values for
// tests that feed in-memory rosters.
type EmployeeBuilder struct {
	emp *model.Employee
}

// NewEmployee creates an EmployeeBuilder with sensible defaults.
func NewEmployee(id, name string) *EmployeeBuilder {
	return &EmployeeBuilder{
		emp: &model.Employee{
			ID:       id,
			Name:     name,
			JobTitle: model.JobTitleEventSpecialist,
			Active:   true,
		},
	}
}

// WithJobTitle sets the job title.
func (b *EmployeeBuilder) WithJobTitle(t model.JobTitle) *EmployeeBuilder {
	b.emp.JobTitle = t
	return b
}

// AsJuicerBarista marks the employee as a trained juicer barista.
func (b *EmployeeBuilder) AsJuicerBarista() *EmployeeBuilder {
	b.emp.JobTitle = model.JobTitleJuicerBarista
	b.emp.JuicerTrained = true
	return b
}

// AsLead marks the employee as a lead event specialist.
func (b *EmployeeBuilder) AsLead() *EmployeeBuilder {
	b.emp.JobTitle = model.JobTitleLeadEventSpecialist
	return b
}

// AsSupervisor marks the employee as a club supervisor.
func (b *EmployeeBuilder) AsSupervisor() *EmployeeBuilder {
	b.emp.JobTitle = model.JobTitleClubSupervisor
	return b
}

// Inactive marks the employee inactive.
func (b *EmployeeBuilder) Inactive() *EmployeeBuilder {
	b.emp.Active = false
	return b
}

// Build returns the employee.
func (b *EmployeeBuilder) Build() *model.Employee {
	out := *b.emp
	return &out
}

// EventBuilder provides a fluent interface for building Event values.
type EventBuilder struct {
	ev *model.Event
}

// NewEvent creates an EventBuilder with sensible Core defaults: the window
// opens on start and closes seven days later.
func NewEvent(ref int, start time.Time) *EventBuilder {
	return &EventBuilder{
		ev: &model.Event{
			ProjectRef:               ref,
			Name:                     "Core Demo",
			Type:                     model.EventTypeCore,
			StartDatetime:            start,
			DueDatetime:              start.AddDate(0, 0, 7),
			EstimatedDurationMinutes: 360,
			Condition:                model.EventConditionUnstaffed,
		},
	}
}

// WithName sets the display name.
func (b *EventBuilder) WithName(name string) *EventBuilder {
	b.ev.Name = name
	return b
}

// WithType sets the event type.
func (b *EventBuilder) WithType(t model.EventType) *EventBuilder {
	b.ev.Type = t
	return b
}

// WithDue sets the due datetime.
func (b *EventBuilder) WithDue(due time.Time) *EventBuilder {
	b.ev.DueDatetime = due
	return b
}

// WithDuration sets the estimated duration in minutes.
func (b *EventBuilder) WithDuration(minutes int) *EventBuilder {
	b.ev.EstimatedDurationMinutes = minutes
	return b
}

// Scheduled marks the event as already scheduled.
func (b *EventBuilder) Scheduled() *EventBuilder {
	b.ev.IsScheduled = true
	return b
}

// Build returns the event.
func (b *EventBuilder) Build() *model.Event {
	out := *b.ev
	return &out
}
