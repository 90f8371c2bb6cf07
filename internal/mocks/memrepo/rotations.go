package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// RotationRepo is an in-memory core.RotationRepository.
type RotationRepo struct {
	mu         *sync.Mutex
	rows       []*model.RotationAssignment
	exceptions []*model.RotationException
}

// GetAssignment implements core.RotationRepository.
func (r *RotationRepo) GetAssignment(_ context.Context, dayOfWeek int, rt model.RotationType) (*model.RotationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.DayOfWeek == dayOfWeek && a.RotationType == rt {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// ListAssignments implements core.RotationRepository with the
// (day_of_week, rotation_type) ordering of the Postgres repo.
func (r *RotationRepo) ListAssignments(_ context.Context) ([]*model.RotationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.RotationAssignment, 0, len(r.rows))
	for _, a := range r.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].RotationType < out[j].RotationType
	})
	return out, nil
}

// Upsert implements core.RotationRepository.
func (r *RotationRepo) Upsert(_ context.Context, req *model.SetRotationRequest) (*model.RotationAssignment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(req), nil
}

// ReplaceAll implements core.RotationRepository.
func (r *RotationRepo) ReplaceAll(_ context.Context, reqs []*model.SetRotationRequest) error {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	for _, req := range reqs {
		r.upsertLocked(req)
	}
	return nil
}

// upsertLocked assumes the caller holds the lock.
func (r *RotationRepo) upsertLocked(req *model.SetRotationRequest) *model.RotationAssignment {
	for _, a := range r.rows {
		if a.DayOfWeek == req.DayOfWeek && a.RotationType == req.RotationType {
			a.PrimaryEmployeeID = req.PrimaryEmployeeID
			a.BackupEmployeeID = req.BackupEmployeeID
			a.UpdatedAt = now()
			cp := *a
			return &cp
		}
	}
	a := &model.RotationAssignment{
		ID:                newID(),
		DayOfWeek:         req.DayOfWeek,
		RotationType:      req.RotationType,
		PrimaryEmployeeID: req.PrimaryEmployeeID,
		BackupEmployeeID:  req.BackupEmployeeID,
		CreatedAt:         now(),
		UpdatedAt:         now(),
	}
	r.rows = append(r.rows, a)
	cp := *a
	return &cp
}

// UpsertException implements core.RotationRepository.
func (r *RotationRepo) UpsertException(_ context.Context, req *model.AddRotationExceptionRequest) (*model.RotationException, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.exceptions {
		if ex.RotationType == req.RotationType && model.SameDate(ex.Date, req.Date) {
			ex.EmployeeID = req.EmployeeID
			ex.Reason = req.Reason
			cp := *ex
			return &cp, nil
		}
	}
	ex := &model.RotationException{
		ID:           newID(),
		Date:         model.DateOf(req.Date),
		RotationType: req.RotationType,
		EmployeeID:   req.EmployeeID,
		Reason:       req.Reason,
		CreatedAt:    now(),
	}
	r.exceptions = append(r.exceptions, ex)
	cp := *ex
	return &cp, nil
}

// GetException implements core.RotationRepository.
func (r *RotationRepo) GetException(_ context.Context, date time.Time, rt model.RotationType) (*model.RotationException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.exceptions {
		if ex.RotationType == rt && model.SameDate(ex.Date, date) {
			cp := *ex
			return &cp, nil
		}
	}
	return nil, nil
}

// ListExceptions implements core.RotationRepository for dates in [start, end].
func (r *RotationRepo) ListExceptions(_ context.Context, start, end time.Time) ([]*model.RotationException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RotationException
	for _, ex := range r.exceptions {
		if !ex.Date.Before(model.DateOf(start)) && !ex.Date.After(model.DateOf(end)) {
			cp := *ex
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DeleteException implements core.RotationRepository.
func (r *RotationRepo) DeleteException(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ex := range r.exceptions {
		if ex.ID == id {
			r.exceptions = append(r.exceptions[:i], r.exceptions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
