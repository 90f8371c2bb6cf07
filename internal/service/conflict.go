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

// BumpCandidate pairs a committed schedule item with its priority score.
// Higher scores are less urgent and get bumped first.
type BumpCandidate struct {
	Item  *model.ScheduledItem
	Score int
}

// ConflictResolverService identifies bumpable committed schedules by priority
// score and validates swap legality.
type ConflictResolverService struct {
	schedules    core.ScheduleRepository
	holidays     core.HolidayRepository
	roster       core.RosterProvider
	cfg          core.EngineConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// ConflictResolverOptions holds the dependencies for NewConflictResolverService.
type ConflictResolverOptions struct {
	Schedules    core.ScheduleRepository
	Holidays     core.HolidayRepository
	Roster       core.RosterProvider
	Config       *core.EngineConfig
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// NewConflictResolverService creates a new ConflictResolverService.
func NewConflictResolverService(opts ConflictResolverOptions) *ConflictResolverService {
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
	return &ConflictResolverService{
		schedules:    opts.Schedules,
		holidays:     opts.Holidays,
		roster:       opts.Roster,
		cfg:          *opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// PriorityScore scores an event at the reference time: whole days until due,
// floored at zero. Lower is more urgent.
func (s *ConflictResolverService) PriorityScore(ev *model.Event, now time.Time) int {
	d := ev.DaysUntilDue(now, s.cfg.Location)
	if d < 0 {
		return 0
	}
	return d
}

// FindBumpableEvents returns committed schedules on the date that a more
// urgent event could displace, least urgent first. Supervisor checkpoints and
// events within MinDaysToDue of their due date are never bumpable. An empty
// employeeID considers the whole roster.
func (s *ConflictResolverService) FindBumpableEvents(
	ctx context.Context,
	targetDate time.Time,
	employeeID string,
) ([]BumpCandidate, error) {
	items, err := s.schedules.ItemsOnDate(ctx, targetDate)
	if err != nil {
		return nil, fmt.Errorf("schedules on %s: %w", model.DateOf(targetDate).Format(time.DateOnly), err)
	}

	now := s.timeProvider.Now()
	var out []BumpCandidate
	for _, it := range items {
		if it.Event == nil || it.Event.Type == model.EventTypeSupervisor {
			continue
		}
		if employeeID != "" && it.EmployeeID != employeeID {
			continue
		}
		if it.Event.DaysUntilDue(now, s.cfg.Location) < s.cfg.MinDaysToDue {
			continue
		}
		out = append(out, BumpCandidate{Item: it, Score: s.PriorityScore(it.Event, now)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ScheduleDatetime.Before(out[j].Item.ScheduleDatetime)
	})
	return out, nil
}

// ResolveConflict proposes displacing the least urgent bumpable schedule on
// the date, provided it is strictly less urgent than the incoming event.
// Returns nil when no legal swap exists.
func (s *ConflictResolverService) ResolveConflict(
	ctx context.Context,
	highPriority *model.Event,
	targetDate time.Time,
	employeeID string,
) (*model.SwapProposal, error) {
	candidates, err := s.FindBumpableEvents(ctx, targetDate, employeeID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	best := candidates[0]
	highScore := s.PriorityScore(highPriority, s.timeProvider.Now())
	if best.Score <= highScore {
		return nil, nil
	}
	return &model.SwapProposal{
		HighPriority: highPriority,
		LowPriority:  best.Item.Event,
		TargetDate:   model.DateOf(targetDate),
		EmployeeID:   best.Item.EmployeeID,
		Reason: fmt.Sprintf("event %d (due in %d days) displaces event %d (due in %d days)",
			highPriority.ProjectRef, highScore, best.Item.EventRef, best.Score),
	}, nil
}

// ValidateSwap re-checks that the bump is still legal: the low-priority event
// must be strictly less urgent and must retain MinDaysToDue headroom.
func (s *ConflictResolverService) ValidateSwap(high, low *model.Event) bool {
	if low.Type == model.EventTypeSupervisor {
		return false
	}
	now := s.timeProvider.Now()
	if low.DaysUntilDue(now, s.cfg.Location) < s.cfg.MinDaysToDue {
		return false
	}
	return s.PriorityScore(low, now) > s.PriorityScore(high, now)
}

// FindAlternativeDates enumerates working dates inside the event's valid
// window on which the employee holds no committed schedule. Company holidays
// and excluded dates are skipped.
func (s *ConflictResolverService) FindAlternativeDates(
	ctx context.Context,
	ev *model.Event,
	employeeID string,
	excludeDates []time.Time,
) ([]time.Time, error) {
	excluded := make(map[string]struct{}, len(excludeDates))
	for _, d := range excludeDates {
		excluded[model.DateOf(d.In(s.cfg.Location)).Format(time.DateOnly)] = struct{}{}
	}

	start := model.DateOf(ev.StartDatetime.In(s.cfg.Location))
	if today := s.timeProvider.Today(); start.Before(today) {
		start = today
	}
	due := model.DateOf(ev.DueDatetime.In(s.cfg.Location))

	var out []time.Time
	for date := start; date.Before(due); date = date.AddDate(0, 0, 1) {
		if _, skip := excluded[date.Format(time.DateOnly)]; skip {
			continue
		}
		holiday, err := s.holidays.GetByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		if holiday != nil {
			continue
		}
		items, err := s.schedules.ItemsForEmployeeBetween(ctx, employeeID, date, date.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			out = append(out, date)
		}
	}
	return out, nil
}

// GetCapacityStatus summarizes how loaded a date is across the active roster.
func (s *ConflictResolverService) GetCapacityStatus(
	ctx context.Context,
	date time.Time,
) (*model.CapacityStatus, error) {
	items, err := s.schedules.ItemsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	status := &model.CapacityStatus{
		Date:           model.DateOf(date),
		ScheduledCount: len(items),
		TotalEmployees: len(roster),
	}
	if status.TotalEmployees > 0 {
		status.CapacityUsed = float64(status.ScheduledCount) / float64(status.TotalEmployees)
	}
	status.Overbooked = status.ScheduledCount > status.TotalEmployees
	return status, nil
}
