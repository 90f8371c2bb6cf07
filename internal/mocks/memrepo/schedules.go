package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// ScheduleRepo is an in-memory core.ScheduleRepository.
type ScheduleRepo struct {
	mu     *sync.Mutex
	events *EventRepo
	rows   []*model.Schedule
}

// Seed inserts committed schedules directly.
func (r *ScheduleRepo) Seed(schedules ...*model.Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schedules {
		cp := *s
		if cp.ID == "" {
			cp.ID = newID()
		}
		r.rows = append(r.rows, &cp)
	}
}

// Create implements core.ScheduleRepository. The event_ref uniqueness of the
// schedules table is not enforced here; tests seed consistent data.
func (r *ScheduleRepo) Create(_ context.Context, req *model.CreateScheduleRequest) (*model.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s := &model.Schedule{
		ID:               newID(),
		EventRef:         req.EventRef,
		EmployeeID:       req.EmployeeID,
		ScheduleDatetime: req.ScheduleDatetime,
		CreatedAt:        now(),
		UpdatedAt:        now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, s)
	cp := *s
	return &cp, nil
}

// Delete implements core.ScheduleRepository.
func (r *ScheduleRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.rows {
		if s.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// GetByEventRef implements core.ScheduleRepository.
func (r *ScheduleRepo) GetByEventRef(_ context.Context, projectRef int) (*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.EventRef == projectRef {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

// UpdateDatetime implements core.ScheduleRepository.
func (r *ScheduleRepo) UpdateDatetime(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.ID == id {
			s.ScheduleDatetime = at
			s.UpdatedAt = now()
			return nil
		}
	}
	return nil
}

// ItemsOnDate implements core.ScheduleRepository.
func (r *ScheduleRepo) ItemsOnDate(_ context.Context, date time.Time) ([]*model.ScheduledItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ScheduledItem
	for _, s := range r.rows {
		if model.SameDate(date, s.ScheduleDatetime) {
			out = append(out, r.item(s))
		}
	}
	sortItems(out)
	return out, nil
}

// ItemsForEmployeeBetween implements core.ScheduleRepository.
func (r *ScheduleRepo) ItemsForEmployeeBetween(_ context.Context, employeeID string, start, end time.Time) ([]*model.ScheduledItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ScheduledItem
	for _, s := range r.rows {
		if s.EmployeeID == employeeID && !s.ScheduleDatetime.Before(start) && s.ScheduleDatetime.Before(end) {
			out = append(out, r.item(s))
		}
	}
	sortItems(out)
	return out, nil
}

// item assumes the caller holds the lock.
func (r *ScheduleRepo) item(s *model.Schedule) *model.ScheduledItem {
	it := &model.ScheduledItem{
		Source:           model.ScheduleSourceCommitted,
		ID:               s.ID,
		EventRef:         s.EventRef,
		EmployeeID:       s.EmployeeID,
		ScheduleDatetime: s.ScheduleDatetime,
	}
	if ev := r.events.find(s.EventRef); ev != nil {
		cp := *ev
		it.Event = &cp
	}
	return it
}

func sortItems(items []*model.ScheduledItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduleDatetime.Equal(items[j].ScheduleDatetime) {
			return items[i].ScheduleDatetime.Before(items[j].ScheduleDatetime)
		}
		return items[i].EventRef < items[j].EventRef
	})
}
