package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// ConstraintValidatorService evaluates a proposed (event, employee, datetime)
// triple against the full constraint taxonomy. It never returns a violation as
// an error; all outcomes are encoded in the ValidationResult. Errors are
// reserved for store failures.
//
// The validator is cross-run aware: daily limits and overlap checks also count
// proposals from every active scheduler run, so concurrent unapproved runs do
// not pile work onto the same employee.
type ConstraintValidatorService struct {
	schedules    core.ScheduleRepository
	pendings     core.PendingAssignmentRepository
	runs         core.SchedulerRunRepository
	timeOff      core.TimeOffRepository
	availability core.AvailabilityRepository
	holidays     core.HolidayRepository
	roster       core.RosterProvider
	cfg          core.EngineConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger

	mu           sync.Mutex
	activeRunIDs []string
	activeLoaded bool
	currentRunID string
}

// ConstraintValidatorOptions holds the dependencies for NewConstraintValidatorService.
type ConstraintValidatorOptions struct {
	Schedules    core.ScheduleRepository
	Pendings     core.PendingAssignmentRepository
	Runs         core.SchedulerRunRepository
	TimeOff      core.TimeOffRepository
	Availability core.AvailabilityRepository
	Holidays     core.HolidayRepository
	Roster       core.RosterProvider
	Config       *core.EngineConfig
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// NewConstraintValidatorService creates a new ConstraintValidatorService.
func NewConstraintValidatorService(opts ConstraintValidatorOptions) *ConstraintValidatorService {
	if opts.Config == nil {
		cfg := core.DefaultEngineConfig()
		opts.Config = &cfg
	}
	opts.Config.Sanitize()
	if opts.TimeProvider == nil {
		opts.TimeProvider = data.NewRealTimeProvider(opts.Config.Location)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ConstraintValidatorService{
		schedules:    opts.Schedules,
		pendings:     opts.Pendings,
		runs:         opts.Runs,
		timeOff:      opts.TimeOff,
		availability: opts.Availability,
		holidays:     opts.Holidays,
		roster:       opts.Roster,
		cfg:          *opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// ValidateParams groups the arguments of Validate.
type ValidateParams struct {
	Event            *model.Event
	Employee         *model.Employee
	ScheduleDatetime time.Time
	// DurationMinutes overrides the event's estimated duration when > 0.
	DurationMinutes int
	// ExcludeScheduleIDs removes named items from DailyLimit and
	// AlreadyScheduled checks, supporting in-place trades.
	ExcludeScheduleIDs []string
}

// SetCurrentRun records the run the engine is executing and invalidates the
// memoized active-run set so the new run's own proposals become visible.
func (s *ConstraintValidatorService) SetCurrentRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRunID = runID
	s.activeLoaded = false
	s.activeRunIDs = nil
}

// CurrentRun returns the run id set by SetCurrentRun.
func (s *ConstraintValidatorService) CurrentRun() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRunID
}

// activeRuns returns the memoized active-run id set, loading it on first use.
func (s *ConstraintValidatorService) activeRuns(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLoaded {
		return s.activeRunIDs, nil
	}
	ids, err := s.runs.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active runs: %w", err)
	}
	s.activeRunIDs = ids
	s.activeLoaded = true
	return ids, nil
}

// Validate evaluates the proposed assignment against every constraint and
// returns the full violation list.
func (s *ConstraintValidatorService) Validate(
	ctx context.Context,
	params ValidateParams,
) (*model.ValidationResult, error) {
	res := &model.ValidationResult{IsValid: true}
	ev, emp, at := params.Event, params.Employee, params.ScheduleDatetime

	s.checkDates(res, ev, at)
	if err := s.checkDayAvailability(ctx, res, emp, at); err != nil {
		return nil, err
	}
	s.checkRole(res, ev, emp)

	// Supervisor checkpoints are 5-minute stops paired with a Core event;
	// they skip limit and overlap checking entirely.
	if ev.Type != model.EventTypeSupervisor {
		items, err := s.weekItems(ctx, emp.ID, at, params.ExcludeScheduleIDs)
		if err != nil {
			return nil, err
		}
		if ev.Type == model.EventTypeCore {
			s.checkCoreLimits(res, emp, at, items)
		}
		s.checkOverlap(res, ev, at, params.DurationMinutes, items)
	}
	return res, nil
}

// ValidateDayOnly runs the date-level subset: past date, holiday, time off and
// weekly availability. Supervisor pairing and the lead waves use this variant;
// time-overlap conflicts are deliberately not considered.
func (s *ConstraintValidatorService) ValidateDayOnly(
	ctx context.Context,
	employee *model.Employee,
	date time.Time,
) (*model.ValidationResult, error) {
	res := &model.ValidationResult{IsValid: true}
	if model.DateOf(date.In(s.cfg.Location)).Before(s.timeProvider.Today()) {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationPastDate,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("date %s is in the past", model.DateOf(date).Format(time.DateOnly)),
		})
	}
	if err := s.checkDayAvailability(ctx, res, employee, date); err != nil {
		return nil, err
	}
	return res, nil
}

// GetAvailableEmployees filters the active roster down to employees for whom
// the assignment validates cleanly.
func (s *ConstraintValidatorService) GetAvailableEmployees(
	ctx context.Context,
	event *model.Event,
	at time.Time,
) ([]*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Employee
	for _, emp := range roster {
		res, err := s.Validate(ctx, ValidateParams{Event: event, Employee: emp, ScheduleDatetime: at})
		if err != nil {
			return nil, err
		}
		if res.IsValid {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (s *ConstraintValidatorService) checkDates(res *model.ValidationResult, ev *model.Event, at time.Time) {
	local := at.In(s.cfg.Location)
	if model.DateOf(local).Before(s.timeProvider.Today()) {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationPastDate,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("schedule date %s is in the past", model.DateOf(local).Format(time.DateOnly)),
		})
	}
	due := model.DateOf(ev.DueDatetime.In(s.cfg.Location))
	if !model.DateOf(local).Before(due) {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationDueDate,
			Severity: model.SeverityHard,
			Message: fmt.Sprintf("schedule date %s is on or after due date %s",
				model.DateOf(local).Format(time.DateOnly), due.Format(time.DateOnly)),
			Details: map[string]any{"event_ref": ev.ProjectRef},
		})
	}
}

func (s *ConstraintValidatorService) checkDayAvailability(
	ctx context.Context,
	res *model.ValidationResult,
	emp *model.Employee,
	at time.Time,
) error {
	date := model.DateOf(at.In(s.cfg.Location))

	holiday, err := s.holidays.GetByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("holiday lookup: %w", err)
	}
	if holiday != nil {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationCompanyHoliday,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("Company Holiday on %s", date.Format(time.DateOnly)),
			Details:  map[string]any{"holiday": holiday.Name},
		})
	}

	off, err := s.timeOff.HasTimeOff(ctx, emp.ID, date)
	if err != nil {
		return fmt.Errorf("time off lookup: %w", err)
	}
	if off {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationTimeOff,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s has time off on %s", emp.Name, date.Format(time.DateOnly)),
		})
	}

	av, err := s.availability.GetForEmployee(ctx, emp.ID)
	if err != nil {
		return fmt.Errorf("availability lookup: %w", err)
	}
	if av == nil {
		av = model.FullWeekAvailability(emp.ID)
	}
	if !av.AvailableOn(date) {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationAvailability,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s is not available on %s", emp.Name, date.Weekday()),
		})
	}
	return nil
}

// leadOnlyTypes require a lead-capable employee.
func leadOnly(t model.EventType) bool {
	return t == model.EventTypeFreeosk || t == model.EventTypeDigitals || t == model.EventTypeOther
}

func (s *ConstraintValidatorService) checkRole(res *model.ValidationResult, ev *model.Event, emp *model.Employee) {
	switch {
	case ev.Type.IsJuicer() && !emp.CanRunJuicerEvents():
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationRole,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s (%s) cannot run juicer events", emp.Name, emp.JobTitle),
		})
	case leadOnly(ev.Type) && !emp.JobTitle.IsLead():
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationRole,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s events require a lead, %s is a %s", ev.Type, emp.Name, emp.JobTitle),
		})
	}

	// Supervisors pulled onto regular demo work is legal but discouraged.
	if emp.JobTitle == model.JobTitleClubSupervisor {
		switch {
		case ev.Type == model.EventTypeSupervisor,
			ev.Type == model.EventTypeDigitals,
			ev.Type == model.EventTypeFreeosk,
			ev.Type.IsJuicer():
		default:
			res.Add(model.ConstraintViolation{
				Type:     model.ViolationRole,
				Severity: model.SeveritySoft,
				Message:  fmt.Sprintf("club supervisor %s assigned to %s event", emp.Name, ev.Type),
			})
		}
	}
}

// weekItems gathers the employee's committed and active-pending items across
// the Sunday-Saturday week containing at, minus excluded ids.
func (s *ConstraintValidatorService) weekItems(
	ctx context.Context,
	employeeID string,
	at time.Time,
	excludeIDs []string,
) ([]*model.ScheduledItem, error) {
	weekStart := model.WeekStart(at.In(s.cfg.Location))
	weekEnd := weekStart.AddDate(0, 0, 7)

	committed, err := s.schedules.ItemsForEmployeeBetween(ctx, employeeID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("committed items: %w", err)
	}

	runIDs, err := s.activeRuns(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.pendings.ItemsForEmployeeBetween(ctx, core.PendingItemsParams{
		RunIDs:     runIDs,
		EmployeeID: employeeID,
		Start:      weekStart,
		End:        weekEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("pending items: %w", err)
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	items := make([]*model.ScheduledItem, 0, len(committed)+len(pending))
	for _, it := range append(committed, pending...) {
		if _, skip := excluded[it.ID]; skip {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *ConstraintValidatorService) checkCoreLimits(
	res *model.ValidationResult,
	emp *model.Employee,
	at time.Time,
	weekItems []*model.ScheduledItem,
) {
	var day, week int
	for _, it := range weekItems {
		if it.Event == nil || it.Event.Type != model.EventTypeCore {
			continue
		}
		week++
		if model.SameDate(it.ScheduleDatetime.In(s.cfg.Location), at.In(s.cfg.Location)) {
			day++
		}
	}
	if day >= s.cfg.MaxCorePerDay {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationDailyLimit,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s already has %d core event(s) that day", emp.Name, day),
			Details:  map[string]any{"limit": s.cfg.MaxCorePerDay, "scope": "day"},
		})
	}
	if week >= s.cfg.MaxCorePerWeek {
		res.Add(model.ConstraintViolation{
			Type:     model.ViolationDailyLimit,
			Severity: model.SeverityHard,
			Message:  fmt.Sprintf("%s already has %d core event(s) that week", emp.Name, week),
			Details:  map[string]any{"limit": s.cfg.MaxCorePerWeek, "scope": "week"},
		})
	}
}

func (s *ConstraintValidatorService) checkOverlap(
	res *model.ValidationResult,
	ev *model.Event,
	at time.Time,
	durationMinutes int,
	weekItems []*model.ScheduledItem,
) {
	d := durationMinutes
	if d <= 0 {
		d = ev.EstimatedDurationMinutes
	}
	start := at
	end := at.Add(time.Duration(d) * time.Minute)

	for _, it := range weekItems {
		if it.Event == nil || !it.Event.Type.BlocksOverlap() {
			continue
		}
		s0, s1 := it.Interval()
		if start.Before(s1) && end.After(s0) {
			res.Add(model.ConstraintViolation{
				Type:     model.ViolationAlreadyScheduled,
				Severity: model.SeverityHard,
				Message: fmt.Sprintf("overlaps %s event %d at %s",
					it.Event.Type, it.EventRef, s0.Format(time.RFC3339)),
				Details: map[string]any{
					"conflicting_ref":    it.EventRef,
					"conflicting_source": string(it.Source),
				},
			})
			return
		}
	}
}
