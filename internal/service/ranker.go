package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// LeastLoadedRanker orders Core candidates by committed assignments in the
// event's week, fewest first. Ties keep the incoming pool order, so the
// rule-based ordering still breaks even matchups.
type LeastLoadedRanker struct {
	schedules core.ScheduleRepository
	logger    *slog.Logger
}

// LeastLoadedRankerOptions holds the dependencies for NewLeastLoadedRanker.
type LeastLoadedRankerOptions struct {
	Schedules core.ScheduleRepository
	Logger    *slog.Logger
}

// NewLeastLoadedRanker creates a new LeastLoadedRanker.
func NewLeastLoadedRanker(opts LeastLoadedRankerOptions) *LeastLoadedRanker {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LeastLoadedRanker{
		schedules: opts.Schedules,
		logger:    opts.Logger,
	}
}

// Rank implements core.EmployeeRanker.
func (r *LeastLoadedRanker) Rank(ctx context.Context, params core.RankParams) ([]*model.Employee, error) {
	weekStart := model.WeekStart(params.Date)
	weekEnd := weekStart.AddDate(0, 0, 7)

	loads := make(map[string]int, len(params.Candidates))
	for _, emp := range params.Candidates {
		if _, ok := loads[emp.ID]; ok {
			continue
		}
		items, err := r.schedules.ItemsForEmployeeBetween(ctx, emp.ID, weekStart, weekEnd)
		if err != nil {
			return nil, err
		}
		loads[emp.ID] = len(items)
	}

	ranked := make([]*model.Employee, len(params.Candidates))
	copy(ranked, params.Candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return loads[ranked[i].ID] < loads[ranked[j].ID]
	})
	return ranked, nil
}
