package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// TimeOffRepo is an in-memory core.TimeOffRepository.
type TimeOffRepo struct {
	mu   *sync.Mutex
	rows []*model.TimeOff
}

// Create implements core.TimeOffRepository.
func (r *TimeOffRepo) Create(_ context.Context, req *model.CreateTimeOffRequest) (*model.TimeOff, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t := &model.TimeOff{
		ID:         newID(),
		EmployeeID: req.EmployeeID,
		StartDate:  model.DateOf(req.StartDate),
		EndDate:    model.DateOf(req.EndDate),
		CreatedAt:  now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, t)
	cp := *t
	return &cp, nil
}

// HasTimeOff implements core.TimeOffRepository.
func (r *TimeOffRepo) HasTimeOff(_ context.Context, employeeID string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.rows {
		if t.EmployeeID == employeeID && t.Covers(date) {
			return true, nil
		}
	}
	return false, nil
}

// ListForEmployee implements core.TimeOffRepository.
func (r *TimeOffRepo) ListForEmployee(_ context.Context, employeeID string) ([]*model.TimeOff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TimeOff
	for _, t := range r.rows {
		if t.EmployeeID == employeeID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// Delete implements core.TimeOffRepository.
func (r *TimeOffRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.rows {
		if t.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// AvailabilityRepo is an in-memory core.AvailabilityRepository.
type AvailabilityRepo struct {
	mu   *sync.Mutex
	rows map[string]*model.WeeklyAvailability
}

// GetForEmployee implements core.AvailabilityRepository.
func (r *AvailabilityRepo) GetForEmployee(_ context.Context, employeeID string) (*model.WeeklyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if av, ok := r.rows[employeeID]; ok {
		cp := *av
		return &cp, nil
	}
	return nil, nil
}

// Upsert implements core.AvailabilityRepository.
func (r *AvailabilityRepo) Upsert(_ context.Context, av *model.WeeklyAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows == nil {
		r.rows = make(map[string]*model.WeeklyAvailability)
	}
	cp := *av
	cp.UpdatedAt = now()
	r.rows[av.EmployeeID] = &cp
	return nil
}

// HolidayRepo is an in-memory core.HolidayRepository.
type HolidayRepo struct {
	mu   *sync.Mutex
	rows []*model.CompanyHoliday
}

// Create implements core.HolidayRepository.
func (r *HolidayRepo) Create(_ context.Context, date time.Time, name string) (*model.CompanyHoliday, error) {
	h := &model.CompanyHoliday{
		ID:        newID(),
		Date:      model.DateOf(date),
		Name:      name,
		CreatedAt: now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, h)
	cp := *h
	return &cp, nil
}

// GetByDate implements core.HolidayRepository.
func (r *HolidayRepo) GetByDate(_ context.Context, date time.Time) (*model.CompanyHoliday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.rows {
		if model.SameDate(h.Date, date) {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

// ListBetween implements core.HolidayRepository for dates in [start, end).
func (r *HolidayRepo) ListBetween(_ context.Context, start, end time.Time) ([]*model.CompanyHoliday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CompanyHoliday
	for _, h := range r.rows {
		if !h.Date.Before(start) && h.Date.Before(end) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
