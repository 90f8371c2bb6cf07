package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// EventType represents the type of an event on the backlog.
type EventType string

const (
	EventTypeCore             EventType = "core"
	EventTypeSupervisor       EventType = "supervisor"
	EventTypeJuicerProduction EventType = "juicer_production"
	EventTypeJuicerSurvey     EventType = "juicer_survey"
	EventTypeJuicerDeepClean  EventType = "juicer_deep_clean"
	EventTypeFreeosk          EventType = "freeosk"
	EventTypeDigitals         EventType = "digitals"
	EventTypeOther            EventType = "other"
)

// Valid reports whether the event type is supported.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeCore, EventTypeSupervisor, EventTypeJuicerProduction, EventTypeJuicerSurvey,
		EventTypeJuicerDeepClean, EventTypeFreeosk, EventTypeDigitals, EventTypeOther:
		return true
	default:
		return false
	}
}

// ParseEventType normalizes an event type string and reports whether it is supported.
func ParseEventType(value string) (EventType, bool) {
	t := EventType(strings.ToLower(strings.TrimSpace(value)))
	if t.Valid() {
		return t, true
	}
	return "", false
}

// IsJuicer reports whether the type is one of the juicer family.
func (t EventType) IsJuicer() bool {
	return t == EventTypeJuicerProduction || t == EventTypeJuicerSurvey || t == EventTypeJuicerDeepClean
}

// BlocksOverlap reports whether assignments of this type occupy an employee's
// time for conflict purposes. Supervisor checkpoints and short lead tasks do not.
func (t EventType) BlocksOverlap() bool {
	return t == EventTypeCore || t == EventTypeJuicerProduction
}

// Priority returns the fixed wave ordering rank for the type; lower runs first.
func (t EventType) Priority() int {
	switch {
	case t.IsJuicer():
		return 1
	case t == EventTypeFreeosk:
		return 4
	case t == EventTypeCore:
		return 6
	case t == EventTypeSupervisor:
		return 7
	case t == EventTypeDigitals:
		return 8
	default:
		return 9
	}
}

// DigitalSubtype identifies the flavor of a Digitals event, detected from the
// display name.
type DigitalSubtype string

const (
	DigitalSubtypeSetup    DigitalSubtype = "setup"
	DigitalSubtypeRefresh  DigitalSubtype = "refresh"
	DigitalSubtypeTeardown DigitalSubtype = "teardown"
	DigitalSubtypeUnknown  DigitalSubtype = "unknown"
)

// EventCondition represents the staffing state of an event.
type EventCondition string

const (
	EventConditionUnstaffed EventCondition = "unstaffed"
	EventConditionStaffed   EventCondition = "staffed"
)

// Valid reports whether the condition is supported.
func (c EventCondition) Valid() bool {
	return c == EventConditionUnstaffed || c == EventConditionStaffed
}

// eventNumberRe matches the first 6-digit run in an event display name. Pairing
// between Core and Supervisor events relies on this convention; when several
// events embed the same number the first match by scan order wins.
var eventNumberRe = regexp.MustCompile(`\d{6}`)

// Event represents a work-order event awaiting or holding a schedule.
type Event struct {
	ProjectRef               int            `json:"project_ref"                db:"project_ref"`
	Name                     string         `json:"name"                       db:"name"`
	Type                     EventType      `json:"type"                       db:"type"`
	StartDatetime            time.Time      `json:"start_datetime"             db:"start_datetime"`
	DueDatetime              time.Time      `json:"due_datetime"               db:"due_datetime"`
	EstimatedDurationMinutes int            `json:"estimated_duration_minutes" db:"estimated_duration_minutes"`
	Condition                EventCondition `json:"condition"                  db:"condition"`
	IsScheduled              bool           `json:"is_scheduled"               db:"is_scheduled"`
	CreatedAt                time.Time      `json:"created_at"                 db:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"                 db:"updated_at"`
}

// EventNumber extracts the 6-digit event number embedded in the display name.
// Returns false when the name carries no such run, which disables pairing.
func (e *Event) EventNumber() (string, bool) {
	m := eventNumberRe.FindString(e.Name)
	return m, m != ""
}

// DigitalSubtype detects the Digitals flavor by name substring.
func (e *Event) DigitalSubtype() DigitalSubtype {
	name := strings.ToLower(e.Name)
	switch {
	case strings.Contains(name, "setup"):
		return DigitalSubtypeSetup
	case strings.Contains(name, "refresh"):
		return DigitalSubtypeRefresh
	case strings.Contains(name, "teardown"):
		return DigitalSubtypeTeardown
	default:
		return DigitalSubtypeUnknown
	}
}

// ScheduleTypePriority returns the slot-selection rank used by the priority
// sort, distinguishing Digitals subtypes.
func (e *Event) ScheduleTypePriority() int {
	if e.Type == EventTypeDigitals {
		switch e.DigitalSubtype() {
		case DigitalSubtypeSetup:
			return 2
		case DigitalSubtypeRefresh:
			return 3
		case DigitalSubtypeTeardown:
			return 5
		case DigitalSubtypeUnknown:
			return 8
		}
	}
	return e.Type.Priority()
}

// DaysUntilDue returns whole days between today and the due date, by calendar
// date in the given location.
func (e *Event) DaysUntilDue(today time.Time, loc *time.Location) int {
	return DaysBetween(today.In(loc), e.DueDatetime.In(loc))
}

// WithinWindow reports whether t is a valid schedule datetime for the event:
// start <= t < due, strict on the due side.
func (e *Event) WithinWindow(t time.Time) bool {
	return !t.Before(e.StartDatetime) && t.Before(e.DueDatetime)
}

// CreateEventRequest represents parameters to insert an event from ingestion.
type CreateEventRequest struct {
	ProjectRef               int            `json:"project_ref"`
	Name                     string         `json:"name"`
	Type                     EventType      `json:"type"`
	StartDatetime            time.Time      `json:"start_datetime"`
	DueDatetime              time.Time      `json:"due_datetime"`
	EstimatedDurationMinutes int            `json:"estimated_duration_minutes"`
	Condition                EventCondition `json:"condition"`
}

// Validate validates CreateEventRequest.
func (r *CreateEventRequest) Validate() error {
	if r.ProjectRef <= 0 {
		return errors.New("project_ref must be > 0")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if !r.Type.Valid() {
		return errors.New("invalid event type")
	}
	if r.StartDatetime.After(r.DueDatetime) {
		return errors.New("start_datetime must not be after due_datetime")
	}
	if r.EstimatedDurationMinutes <= 0 {
		return errors.New("estimated_duration_minutes must be > 0")
	}
	if r.Condition == "" {
		r.Condition = EventConditionUnstaffed
	}
	if !r.Condition.Valid() {
		return errors.New("invalid condition")
	}
	return nil
}
