package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// EmployeeRepo is an in-memory core.EmployeeRepository.
type EmployeeRepo struct {
	mu   *sync.Mutex
	rows []*model.Employee
}

// Seed inserts employees directly, bypassing request validation. Builders from
// testutil pair well with this.
func (r *EmployeeRepo) Seed(emps ...*model.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range emps {
		cp := *e
		if cp.ID == "" {
			cp.ID = newID()
		}
		r.rows = append(r.rows, &cp)
	}
}

// Create implements core.EmployeeRepository.
func (r *EmployeeRepo) Create(_ context.Context, req *model.CreateEmployeeRequest) (*model.Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	emp := &model.Employee{
		ID:            newID(),
		Name:          req.Name,
		JobTitle:      req.JobTitle,
		Active:        active,
		JuicerTrained: req.JuicerTrained,
		CreatedAt:     now(),
		UpdatedAt:     now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, emp)
	cp := *emp
	return &cp, nil
}

// GetByID implements core.EmployeeRepository.
func (r *EmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

// ListActive implements core.EmployeeRepository with the (name, id) ordering of
// the Postgres repo.
func (r *EmployeeRepo) ListActive(_ context.Context) ([]*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Employee, 0, len(r.rows))
	for _, e := range r.rows {
		if e.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SetActive implements core.EmployeeRepository.
func (r *EmployeeRepo) SetActive(_ context.Context, id string, active bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.ID == id {
			e.Active = active
			e.UpdatedAt = now()
			return true, nil
		}
	}
	return false, nil
}
