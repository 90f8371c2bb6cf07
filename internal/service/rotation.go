// Package service provides the business logic of the demo-scheduler engine:
// rotation resolution, constraint validation, conflict resolution and the wave
// scheduler itself.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// RotationManagerService resolves "who is on rotation" for a date and rotation
// type, honoring one-time exceptions and backup assignments.
type RotationManagerService struct {
	rotations core.RotationRepository
	roster    core.RosterProvider
	logger    *slog.Logger
}

// RotationManagerOptions holds the dependencies for NewRotationManagerService.
type RotationManagerOptions struct {
	Rotations core.RotationRepository
	Roster    core.RosterProvider
	Logger    *slog.Logger
}

// NewRotationManagerService creates a new RotationManagerService.
func NewRotationManagerService(opts RotationManagerOptions) *RotationManagerService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RotationManagerService{
		rotations: opts.Rotations,
		roster:    opts.Roster,
		logger:    opts.Logger,
	}
}

// GetRotationEmployee resolves the rotation employee for a date. An exception
// for the date wins; otherwise the weekly assignment for the weekday applies,
// returning the backup instead of the primary when tryBackup is set and a
// backup exists. Returns nil when nothing is assigned or the resolved employee
// is no longer on the active roster.
func (s *RotationManagerService) GetRotationEmployee(
	ctx context.Context,
	date time.Time,
	rt model.RotationType,
	tryBackup bool,
) (*model.Employee, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("invalid rotation type: %s", rt)
	}

	exc, err := s.rotations.GetException(ctx, date, rt)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return s.activeEmployee(ctx, exc.EmployeeID)
	}

	assignment, err := s.rotations.GetAssignment(ctx, model.WeekdayIndex(date), rt)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, nil
	}

	id := assignment.PrimaryEmployeeID
	if tryBackup && assignment.BackupEmployeeID != nil {
		id = *assignment.BackupEmployeeID
	}
	return s.activeEmployee(ctx, id)
}

// GetRotationWithBackup resolves both rotation roles for a date in one lookup.
// An exception replaces the primary and clears the backup.
func (s *RotationManagerService) GetRotationWithBackup(
	ctx context.Context,
	date time.Time,
	rt model.RotationType,
) (primary, backup *model.Employee, err error) {
	exc, err := s.rotations.GetException(ctx, date, rt)
	if err != nil {
		return nil, nil, err
	}
	if exc != nil {
		primary, err = s.activeEmployee(ctx, exc.EmployeeID)
		return primary, nil, err
	}

	assignment, err := s.rotations.GetAssignment(ctx, model.WeekdayIndex(date), rt)
	if err != nil || assignment == nil {
		return nil, nil, err
	}
	primary, err = s.activeEmployee(ctx, assignment.PrimaryEmployeeID)
	if err != nil {
		return nil, nil, err
	}
	if assignment.BackupEmployeeID != nil {
		backup, err = s.activeEmployee(ctx, *assignment.BackupEmployeeID)
		if err != nil {
			return nil, nil, err
		}
	}
	return primary, backup, nil
}

// SetRotation upserts one weekly rotation assignment.
func (s *RotationManagerService) SetRotation(
	ctx context.Context,
	req *model.SetRotationRequest,
) (*model.RotationAssignment, error) {
	return s.rotations.Upsert(ctx, req)
}

// SetAllRotations atomically replaces every weekly rotation. Every entry is
// validated up front; validation failures are accumulated and nothing is
// persisted when any entry is bad.
func (s *RotationManagerService) SetAllRotations(
	ctx context.Context,
	reqs []*model.SetRotationRequest,
) error {
	var errs []error
	for i, req := range reqs {
		if req == nil {
			errs = append(errs, fmt.Errorf("rotation %d: request is nil", i))
			continue
		}
		if err := req.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rotation %d (day %d, %s): %w",
				i, req.DayOfWeek, req.RotationType, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return s.rotations.ReplaceAll(ctx, reqs)
}

// AddException upserts a one-time rotation override keyed on (date, type).
func (s *RotationManagerService) AddException(
	ctx context.Context,
	req *model.AddRotationExceptionRequest,
) (*model.RotationException, error) {
	return s.rotations.UpsertException(ctx, req)
}

// GetExceptions lists overrides with dates in [start, end].
func (s *RotationManagerService) GetExceptions(
	ctx context.Context,
	start, end time.Time,
) ([]*model.RotationException, error) {
	return s.rotations.ListExceptions(ctx, start, end)
}

// DeleteException removes an override, reporting whether it existed.
func (s *RotationManagerService) DeleteException(ctx context.Context, id string) (bool, error) {
	return s.rotations.DeleteException(ctx, id)
}

// GetSecondaryLead returns the first active lead-capable employee, in roster
// order, who is not the primary lead for the date. Returns nil when every lead
// is the primary or the roster holds none.
func (s *RotationManagerService) GetSecondaryLead(
	ctx context.Context,
	date time.Time,
) (*model.Employee, error) {
	primary, err := s.GetRotationEmployee(ctx, date, model.RotationTypePrimaryLead, false)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, emp := range roster {
		if !emp.JobTitle.IsLead() {
			continue
		}
		if primary != nil && emp.ID == primary.ID {
			continue
		}
		return emp, nil
	}
	return nil, nil
}

// activeEmployee resolves an id against the active roster. Rotation rows can
// outlive a deactivation; a stale reference resolves to nil, not an error.
func (s *RotationManagerService) activeEmployee(ctx context.Context, id string) (*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, emp := range roster {
		if emp.ID == id {
			return emp, nil
		}
	}
	return nil, nil
}
