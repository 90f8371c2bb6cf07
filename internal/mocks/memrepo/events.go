package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// EventRepo is an in-memory core.EventRepository.
type EventRepo struct {
	mu   *sync.Mutex
	rows []*model.Event
}

// Seed inserts events directly, bypassing request validation.
func (r *EventRepo) Seed(events ...*model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		cp := *e
		if cp.Condition == "" {
			cp.Condition = model.EventConditionUnstaffed
		}
		r.rows = append(r.rows, &cp)
	}
}

// Upsert implements core.EventRepository. Matching the ON CONFLICT clause of
// the Postgres repo, is_scheduled survives an update.
func (r *EventRepo) Upsert(_ context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.ProjectRef == req.ProjectRef {
			e.Name = req.Name
			e.Type = req.Type
			e.StartDatetime = req.StartDatetime
			e.DueDatetime = req.DueDatetime
			e.EstimatedDurationMinutes = req.EstimatedDurationMinutes
			e.Condition = req.Condition
			e.UpdatedAt = now()
			cp := *e
			return &cp, nil
		}
	}
	ev := &model.Event{
		ProjectRef:               req.ProjectRef,
		Name:                     req.Name,
		Type:                     req.Type,
		StartDatetime:            req.StartDatetime,
		DueDatetime:              req.DueDatetime,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		Condition:                req.Condition,
		CreatedAt:                now(),
		UpdatedAt:                now(),
	}
	r.rows = append(r.rows, ev)
	cp := *ev
	return &cp, nil
}

// GetByRef implements core.EventRepository.
func (r *EventRepo) GetByRef(_ context.Context, projectRef int) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.find(projectRef); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, fmt.Errorf("event %d not found", projectRef)
}

// ListUnscheduled implements core.EventRepository with the (due, ref) ordering
// of the Postgres repo.
func (r *EventRepo) ListUnscheduled(_ context.Context, now time.Time) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Event, 0, len(r.rows))
	for _, e := range r.rows {
		if e.Condition == model.EventConditionUnstaffed && !e.IsScheduled && e.DueDatetime.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDatetime.Equal(out[j].DueDatetime) {
			return out[i].DueDatetime.Before(out[j].DueDatetime)
		}
		return out[i].ProjectRef < out[j].ProjectRef
	})
	return out, nil
}

// FindScheduledEventByNumber implements core.EventRepository: lowest project
// ref wins, as in the Postgres ORDER BY.
func (r *EventRepo) FindScheduledEventByNumber(_ context.Context, t model.EventType, number string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.Event
	for _, e := range r.rows {
		if e.Type != t || !e.IsScheduled || !strings.Contains(e.Name, number) {
			continue
		}
		if best == nil || e.ProjectRef < best.ProjectRef {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

// SetScheduled implements core.EventRepository.
func (r *EventRepo) SetScheduled(_ context.Context, projectRef int, scheduled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.find(projectRef); e != nil {
		e.IsScheduled = scheduled
		e.UpdatedAt = now()
	}
	return nil
}

// find assumes the caller holds the lock.
func (r *EventRepo) find(projectRef int) *model.Event {
	for _, e := range r.rows {
		if e.ProjectRef == projectRef {
			return e
		}
	}
	return nil
}
