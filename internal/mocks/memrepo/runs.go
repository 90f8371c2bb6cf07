package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// SchedulerRunRepo is an in-memory core.SchedulerRunRepository.
type SchedulerRunRepo struct {
	mu   *sync.Mutex
	rows []*model.SchedulerRun
}

// Seed inserts runs directly.
func (r *SchedulerRunRepo) Seed(runs ...*model.SchedulerRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range runs {
		cp := *run
		if cp.ID == "" {
			cp.ID = newID()
		}
		r.rows = append(r.rows, &cp)
	}
}

// Create implements core.SchedulerRunRepository.
func (r *SchedulerRunRepo) Create(_ context.Context, runType model.RunType, startedAt time.Time) (*model.SchedulerRun, error) {
	if !runType.Valid() {
		return nil, fmt.Errorf("invalid run type %q", runType)
	}
	run := &model.SchedulerRun{
		ID:        newID(),
		RunType:   runType,
		Status:    model.RunStatusRunning,
		StartedAt: startedAt,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, run)
	cp := *run
	return &cp, nil
}

// GetByID implements core.SchedulerRunRepository.
func (r *SchedulerRunRepo) GetByID(_ context.Context, id string) (*model.SchedulerRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.rows {
		if run.ID == id {
			cp := *run
			return &cp, nil
		}
	}
	return nil, nil
}

// Update implements core.SchedulerRunRepository.
func (r *SchedulerRunRepo) Update(_ context.Context, run *model.SchedulerRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.rows {
		if existing.ID == run.ID {
			cp := *run
			r.rows[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("scheduler run %s not found", run.ID)
}

// ListActiveIDs implements core.SchedulerRunRepository with the
// (started_at, id) ordering of the Postgres repo.
func (r *SchedulerRunRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*model.SchedulerRun
	for _, run := range r.rows {
		if run.Active() {
			active = append(active, run)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].StartedAt.Equal(active[j].StartedAt) {
			return active[i].StartedAt.Before(active[j].StartedAt)
		}
		return active[i].ID < active[j].ID
	})
	ids := make([]string, 0, len(active))
	for _, run := range active {
		ids = append(ids, run.ID)
	}
	return ids, nil
}

// Approve implements core.SchedulerRunRepository, mirroring the CHECK
// constraint that only completed runs may carry approved_at.
func (r *SchedulerRunRepo) Approve(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.rows {
		if run.ID == id {
			if run.Status != model.RunStatusCompleted {
				return fmt.Errorf("scheduler run %s is %s, only completed runs may be approved", id, run.Status)
			}
			run.ApprovedAt = &at
			return nil
		}
	}
	return fmt.Errorf("scheduler run %s not found", id)
}
