package memrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"

	"github.com/fieldops/demo-scheduler/internal/core"
)

// PendingAssignmentRepo is an in-memory core.PendingAssignmentRepository.
type PendingAssignmentRepo struct {
	mu     *sync.Mutex
	events *EventRepo
	rows   []*model.PendingAssignment
}

// Create implements core.PendingAssignmentRepository, enforcing the
// (run_id, event_ref) uniqueness of the pending_assignments table.
func (r *PendingAssignmentRepo) Create(_ context.Context, req *model.CreatePendingAssignmentRequest) (*model.PendingAssignment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.RunID == req.RunID && p.EventRef == req.EventRef {
			return nil, fmt.Errorf("pending assignment for run %s event %d already exists", req.RunID, req.EventRef)
		}
	}
	p := &model.PendingAssignment{
		ID:               newID(),
		RunID:            req.RunID,
		EventRef:         req.EventRef,
		EmployeeID:       req.EmployeeID,
		ScheduleDatetime: req.ScheduleDatetime,
		Status:           model.AssignmentStatusProposed,
		FailureReason:    req.FailureReason,
		IsSwap:           req.IsSwap,
		BumpedEventRef:   req.BumpedEventRef,
		SwapReason:       req.SwapReason,
		CreatedAt:        now(),
		UpdatedAt:        now(),
	}
	r.rows = append(r.rows, p)
	cp := *p
	return &cp, nil
}

// Delete implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.rows {
		if p.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// UpdatePlacement implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) UpdatePlacement(_ context.Context, id string, employeeID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id {
			p.EmployeeID = &employeeID
			p.ScheduleDatetime = &at
			p.UpdatedAt = now()
			return nil
		}
	}
	return fmt.Errorf("pending assignment %s not found", id)
}

// GetByID implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) GetByID(_ context.Context, id string) (*model.PendingAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByRunAndEvent implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) GetByRunAndEvent(_ context.Context, runID string, projectRef int) (*model.PendingAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.RunID == runID && p.EventRef == projectRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// ListByRun implements core.PendingAssignmentRepository in insertion order,
// which the Postgres repo mirrors with ORDER BY created_at.
func (r *PendingAssignmentRepo) ListByRun(_ context.Context, runID string) ([]*model.PendingAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PendingAssignment
	for _, p := range r.rows {
		if p.RunID == runID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MarkSupersededForEvent implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) MarkSupersededForEvent(_ context.Context, projectRef int, excludeRunID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.rows {
		if p.EventRef == projectRef && p.RunID != excludeRunID && p.Status == model.AssignmentStatusProposed && !p.Failed() {
			p.Status = model.AssignmentStatusSuperseded
			p.UpdatedAt = now()
			n++
		}
	}
	return n, nil
}

// ItemsOnDate implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) ItemsOnDate(_ context.Context, runIDs []string, date time.Time) ([]*model.ScheduledItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ScheduledItem
	for _, p := range r.rows {
		if p.Placed() && inRuns(p.RunID, runIDs) && model.SameDate(date, *p.ScheduleDatetime) {
			out = append(out, r.item(p))
		}
	}
	sortItems(out)
	return out, nil
}

// ItemsForEmployeeBetween implements core.PendingAssignmentRepository.
func (r *PendingAssignmentRepo) ItemsForEmployeeBetween(_ context.Context, params core.PendingItemsParams) ([]*model.ScheduledItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ScheduledItem
	for _, p := range r.rows {
		if !p.Placed() || !inRuns(p.RunID, params.RunIDs) || *p.EmployeeID != params.EmployeeID {
			continue
		}
		at := *p.ScheduleDatetime
		if !at.Before(params.Start) && at.Before(params.End) {
			out = append(out, r.item(p))
		}
	}
	sortItems(out)
	return out, nil
}

// item assumes the caller holds the lock and p.Placed().
func (r *PendingAssignmentRepo) item(p *model.PendingAssignment) *model.ScheduledItem {
	it := &model.ScheduledItem{
		Source:           model.ScheduleSourcePending,
		ID:               p.ID,
		RunID:            p.RunID,
		EventRef:         p.EventRef,
		EmployeeID:       *p.EmployeeID,
		ScheduleDatetime: *p.ScheduleDatetime,
	}
	if ev := r.events.find(p.EventRef); ev != nil {
		cp := *ev
		it.Event = &cp
	}
	return it
}

func inRuns(runID string, runIDs []string) bool {
	for _, id := range runIDs {
		if id == runID {
			return true
		}
	}
	return false
}
