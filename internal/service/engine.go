package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// SchedulingEngineService orchestrates the multi-wave auto-scheduler. A run is
// a sequential batch: events are fetched once, sorted by urgency, and placed
// wave by wave, with cascading bumps of less urgent work when slots contend.
type SchedulingEngineService struct {
	events    core.EventRepository
	schedules core.ScheduleRepository
	pendings  core.PendingAssignmentRepository
	runs      core.SchedulerRunRepository
	roster    core.RosterProvider
	validator *ConstraintValidatorService
	rotations *RotationManagerService
	conflicts *ConflictResolverService
	ranker    core.EmployeeRanker
	notifier  core.BumpNotifier

	cfg          core.EngineConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// SchedulingEngineOptions holds the dependencies for NewSchedulingEngineService.
type SchedulingEngineOptions struct {
	Events    core.EventRepository
	Schedules core.ScheduleRepository
	Pendings  core.PendingAssignmentRepository
	Runs      core.SchedulerRunRepository
	Roster    core.RosterProvider
	Validator *ConstraintValidatorService
	Rotations *RotationManagerService
	Conflicts *ConflictResolverService
	// Ranker is optional; when nil the deterministic rule-based pool order is kept.
	Ranker core.EmployeeRanker
	// Notifier is invoked when a committed schedule is bumped. Defaults to no-op.
	Notifier     core.BumpNotifier
	Config       *core.EngineConfig
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// NewSchedulingEngineService creates a new SchedulingEngineService.
func NewSchedulingEngineService(opts SchedulingEngineOptions) *SchedulingEngineService {
	if opts.Config == nil {
		cfg := core.DefaultEngineConfig()
		opts.Config = &cfg
	}
	opts.Config.Sanitize()
	if opts.TimeProvider == nil {
		opts.TimeProvider = data.NewRealTimeProvider(opts.Config.Location)
	}
	if opts.Notifier == nil {
		opts.Notifier = core.NoopBumpNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SchedulingEngineService{
		events:       opts.Events,
		schedules:    opts.Schedules,
		pendings:     opts.Pendings,
		runs:         opts.Runs,
		roster:       opts.Roster,
		validator:    opts.Validator,
		rotations:    opts.Rotations,
		conflicts:    opts.Conflicts,
		ranker:       opts.Ranker,
		notifier:     opts.Notifier,
		cfg:          *opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// runState is the per-run bookkeeping: bump counters, per-date slot indices,
// the mutable Core queue and the supervisor pairing map. It lives for the
// duration of one run only.
type runState struct {
	run *model.SchedulerRun

	coreQueue   []*model.Event
	supervisors []*model.Event

	bumpCounts      map[int]int
	coreSlotIdx     map[string]int
	setupSlotIdx    map[string]int
	teardownSlotIdx map[string]int

	// placedCoreDates maps the 6-digit event number of a Core placed this run
	// to its scheduled date, feeding supervisor pairing.
	placedCoreDates map[string]time.Time

	// placedSupervisors maps an event number to the supervisor proposal written
	// this run, so core bumps and forward-moves can drag the checkpoint along.
	placedSupervisors map[string]supervisorPlacement

	// processed guards the total-processed counter against double counting
	// when a bumped event cycles back through the queue.
	processed map[int]bool

	// failedCore tracks failure rows written for Core events so the rescue
	// pass can retry and retract them.
	failedCore map[int]failedCoreEntry
}

type supervisorPlacement struct {
	pendingID  string
	employeeID string
}

type failedCoreEntry struct {
	event     *model.Event
	pendingID string
}

func newRunState(run *model.SchedulerRun) *runState {
	return &runState{
		run:               run,
		bumpCounts:        map[int]int{},
		coreSlotIdx:       map[string]int{},
		setupSlotIdx:      map[string]int{},
		teardownSlotIdx:   map[string]int{},
		placedCoreDates:   map[string]time.Time{},
		placedSupervisors: map[string]supervisorPlacement{},
		processed:         map[int]bool{},
		failedCore:        map[int]failedCoreEntry{},
	}
}

// markProcessed counts an event toward the run total exactly once.
func (st *runState) markProcessed(ref int) {
	if !st.processed[ref] {
		st.processed[ref] = true
		st.run.TotalProcessed++
	}
}

func dateKey(t time.Time) string {
	return model.DateOf(t).Format(time.DateOnly)
}

// RunAutoScheduler executes one full scheduling run. On any store error the
// run is marked failed with the error message recorded, and the error is
// returned. On success the run is marked completed with final counters.
func (s *SchedulingEngineService) RunAutoScheduler(
	ctx context.Context,
	runType model.RunType,
) (*model.SchedulerRun, error) {
	run, err := s.runs.Create(ctx, runType, s.timeProvider.Now())
	if err != nil {
		return nil, fmt.Errorf("open scheduler run: %w", err)
	}
	s.validator.SetCurrentRun(run.ID)
	s.logger.Info("scheduler run started", "run_id", run.ID, "run_type", string(runType))

	st := newRunState(run)
	execErr := s.executeWaves(ctx, st)

	now := s.timeProvider.Now()
	run.CompletedAt = &now
	if execErr != nil {
		run.Status = model.RunStatusFailed
		msg := execErr.Error()
		run.ErrorMessage = &msg
	} else {
		run.Status = model.RunStatusCompleted
	}
	if err := s.runs.Update(ctx, run); err != nil {
		if execErr != nil {
			return run, fmt.Errorf("close failed run: %w (run error: %v)", err, execErr)
		}
		return run, fmt.Errorf("close scheduler run: %w", err)
	}
	if execErr != nil {
		s.logger.Error("scheduler run failed", "run_id", run.ID, "error", execErr)
		return run, execErr
	}
	s.logger.Info("scheduler run completed",
		"run_id", run.ID,
		"processed", run.TotalProcessed,
		"scheduled", run.Scheduled,
		"failed", run.Failed,
		"swaps", run.RequiringSwaps)
	return run, nil
}

func (s *SchedulingEngineService) executeWaves(ctx context.Context, st *runState) error {
	backlog, err := s.events.ListUnscheduled(ctx, s.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("load backlog: %w", err)
	}
	s.sortByPriority(backlog)

	var juicers, freeosks, digitals, others []*model.Event
	for _, ev := range backlog {
		switch {
		case ev.Type.IsJuicer():
			juicers = append(juicers, ev)
		case ev.Type == model.EventTypeCore:
			st.coreQueue = append(st.coreQueue, ev)
		case ev.Type == model.EventTypeSupervisor:
			st.supervisors = append(st.supervisors, ev)
		case ev.Type == model.EventTypeFreeosk:
			freeosks = append(freeosks, ev)
		case ev.Type == model.EventTypeDigitals:
			digitals = append(digitals, ev)
		default:
			others = append(others, ev)
		}
	}

	if err := s.scheduleJuicerEvents(ctx, st, juicers); err != nil {
		return err
	}
	if err := s.scheduleCoreEvents(ctx, st); err != nil {
		return err
	}
	if err := s.pairOrphanedSupervisors(ctx, st); err != nil {
		return err
	}
	if err := s.scheduleFreeoskEvents(ctx, st, freeosks); err != nil {
		return err
	}
	if err := s.scheduleDigitalEvents(ctx, st, digitals); err != nil {
		return err
	}
	if err := s.scheduleOtherEvents(ctx, st, others); err != nil {
		return err
	}
	return s.rescueFailedCores(ctx, st)
}

// sortByPriority orders the backlog by (days until due, slot-selection type
// priority), stable so equal keys keep store order for determinism.
func (s *SchedulingEngineService) sortByPriority(events []*model.Event) {
	now := s.timeProvider.Now()
	sort.SliceStable(events, func(i, j int) bool {
		di := events[i].DaysUntilDue(now, s.cfg.Location)
		dj := events[j].DaysUntilDue(now, s.cfg.Location)
		if di != dj {
			return di < dj
		}
		return events[i].ScheduleTypePriority() < events[j].ScheduleTypePriority()
	})
}

// earliestSchedulable returns the first date the event may be placed on:
// its own start date, pushed out by the scheduling window.
func (s *SchedulingEngineService) earliestSchedulable(ev *model.Event) time.Time {
	start := model.DateOf(ev.StartDatetime.In(s.cfg.Location))
	windowed := s.timeProvider.Today().AddDate(0, 0, s.cfg.SchedulingWindowDays)
	if start.Before(windowed) {
		return windowed
	}
	return start
}

func (s *SchedulingEngineService) dueDate(ev *model.Event) time.Time {
	return model.DateOf(ev.DueDatetime.In(s.cfg.Location))
}

// daysFromToday returns whole calendar days between today and the date.
func (s *SchedulingEngineService) daysFromToday(date time.Time) int {
	return model.DaysBetween(s.timeProvider.Today(), date.In(s.cfg.Location))
}

// pendingWrite bundles what writePending needs beyond the placement itself.
type pendingWrite struct {
	IsSwap         bool
	BumpedEventRef *int
	SwapReason     *string
}

// writePending records a proposed placement, after re-asserting the event
// window. A window violation here is a programmer error: the write is skipped
// and logged, never persisted. Returns nil without error on a skipped write.
func (s *SchedulingEngineService) writePending(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	employeeID string,
	at time.Time,
	meta pendingWrite,
) (*model.PendingAssignment, error) {
	if at.Before(ev.StartDatetime) || !at.Before(ev.DueDatetime) {
		s.logger.Error("assignment outside event window, write skipped",
			"run_id", st.run.ID,
			"event_ref", ev.ProjectRef,
			"schedule_datetime", at,
			"start", ev.StartDatetime,
			"due", ev.DueDatetime)
		return nil, nil
	}

	pa, err := s.pendings.Create(ctx, &model.CreatePendingAssignmentRequest{
		RunID:            st.run.ID,
		EventRef:         ev.ProjectRef,
		EmployeeID:       &employeeID,
		ScheduleDatetime: &at,
		IsSwap:           meta.IsSwap,
		BumpedEventRef:   meta.BumpedEventRef,
		SwapReason:       meta.SwapReason,
	})
	if err != nil {
		return nil, fmt.Errorf("write pending assignment for event %d: %w", ev.ProjectRef, err)
	}
	if _, err := s.pendings.MarkSupersededForEvent(ctx, ev.ProjectRef, st.run.ID); err != nil {
		return nil, err
	}

	st.run.Scheduled++
	if meta.IsSwap {
		st.run.RequiringSwaps++
	}
	if ev.Type == model.EventTypeCore {
		if num, ok := ev.EventNumber(); ok {
			st.placedCoreDates[num] = model.DateOf(at.In(s.cfg.Location))
		}
	}
	s.logger.Debug("assignment proposed",
		"run_id", st.run.ID,
		"event_ref", ev.ProjectRef,
		"event_type", string(ev.Type),
		"employee_id", employeeID,
		"at", at,
		"swap", meta.IsSwap)
	return pa, nil
}

// writeFailure records a placement failure as data; the run continues.
func (s *SchedulingEngineService) writeFailure(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	reason string,
) error {
	if reason == "" {
		reason = "no valid employee and date combination found"
	}
	pa, err := s.pendings.Create(ctx, &model.CreatePendingAssignmentRequest{
		RunID:         st.run.ID,
		EventRef:      ev.ProjectRef,
		FailureReason: &reason,
	})
	if err != nil {
		return fmt.Errorf("write failure for event %d: %w", ev.ProjectRef, err)
	}
	st.run.Failed++
	if ev.Type == model.EventTypeCore {
		st.failedCore[ev.ProjectRef] = failedCoreEntry{event: ev, pendingID: pa.ID}
	}
	s.logger.Warn("event could not be placed",
		"run_id", st.run.ID,
		"event_ref", ev.ProjectRef,
		"event_type", string(ev.Type),
		"reason", reason)
	return nil
}
