package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

const pendingColumns = `id, run_id, event_ref, employee_id, schedule_datetime, status,
	failure_reason, is_swap, bumped_event_ref, swap_reason, created_at, updated_at`

// PendingAssignmentRepo provides database operations for run proposals.
type PendingAssignmentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPendingAssignmentRepo creates a new PendingAssignmentRepo with a real time provider.
func NewPendingAssignmentRepo(db *sql.DB) *PendingAssignmentRepo {
	return &PendingAssignmentRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewPendingAssignmentRepoWithTimeProvider creates a PendingAssignmentRepo with
// a custom time provider.
func NewPendingAssignmentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PendingAssignmentRepo {
	return &PendingAssignmentRepo{DB: db, timeProvider: tp}
}

// Create inserts a proposal or failure row for a run.
func (r *PendingAssignmentRepo) Create(
	ctx context.Context,
	req *model.CreatePendingAssignmentRequest,
) (*model.PendingAssignment, error) {
	if req == nil {
		return nil, errors.New("create pending assignment request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.PendingAssignment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO pending_assignments (
				run_id, event_ref, employee_id, schedule_datetime,
				failure_reason, is_swap, bumped_event_ref, swap_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+pendingColumns,
			req.RunID,
			req.EventRef,
			req.EmployeeID,
			req.ScheduleDatetime,
			req.FailureReason,
			req.IsSwap,
			req.BumpedEventRef,
			req.SwapReason,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PendingAssignment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create pending assignment: %w", err)
	}
	return &out, nil
}

// Delete removes a proposal, reporting whether it existed.
func (r *PendingAssignmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM pending_assignments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("delete pending assignment: %w", err)
	}
	return deleted, nil
}

// UpdatePlacement moves a placed proposal to a new employee and datetime.
func (r *PendingAssignmentRepo) UpdatePlacement(
	ctx context.Context,
	id string,
	employeeID string,
	at time.Time,
) error {
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE pending_assignments
			SET employee_id = $2, schedule_datetime = $3, updated_at = $4
			WHERE id = $1 AND failure_reason IS NULL
		`, id, employeeID, at, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAssignmentNotPlaced
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrAssignmentNotPlaced) {
			return err
		}
		return fmt.Errorf("update pending assignment placement: %w", err)
	}
	return nil
}

// GetByID retrieves a proposal by id.
func (r *PendingAssignmentRepo) GetByID(ctx context.Context, id string) (*model.PendingAssignment, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByRunAndEvent retrieves the proposal a run holds for an event, or nil.
func (r *PendingAssignmentRepo) GetByRunAndEvent(
	ctx context.Context,
	runID string,
	projectRef int,
) (*model.PendingAssignment, error) {
	out, err := r.getOne(ctx, `WHERE run_id = $1 AND event_ref = $2`, runID, projectRef)
	if errors.Is(err, ErrAssignmentNotFound) {
		return nil, nil
	}
	return out, err
}

func (r *PendingAssignmentRepo) getOne(ctx context.Context, where string, args ...any) (*model.PendingAssignment, error) {
	var out model.PendingAssignment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+pendingColumns+` FROM pending_assignments `+where, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PendingAssignment])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("get pending assignment: %w", err)
	}
	return &out, nil
}

// ListByRun retrieves all rows for a run in creation order.
func (r *PendingAssignmentRepo) ListByRun(ctx context.Context, runID string) ([]*model.PendingAssignment, error) {
	var rowsOut []model.PendingAssignment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+pendingColumns+` FROM pending_assignments WHERE run_id = $1 ORDER BY created_at, id`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.PendingAssignment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list pending assignments by run: %w", err)
	}

	res := make([]*model.PendingAssignment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// MarkSupersededForEvent marks proposals for the event in every run except
// excludeRunID as superseded; returns rows affected.
func (r *PendingAssignmentRepo) MarkSupersededForEvent(
	ctx context.Context,
	projectRef int,
	excludeRunID string,
) (int, error) {
	var affected int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE pending_assignments
			SET status = 'superseded', updated_at = $3
			WHERE event_ref = $1 AND run_id <> $2 AND status = 'proposed' AND failure_reason IS NULL
		`, projectRef, excludeRunID, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		affected = int(tag.RowsAffected())
		return nil
	}); err != nil {
		return 0, fmt.Errorf("mark pending assignments superseded: %w", err)
	}
	return affected, nil
}

// ItemsOnDate returns placed proposals from the given runs on a calendar date
// with events joined. Failure and superseded rows are excluded.
func (r *PendingAssignmentRepo) ItemsOnDate(
	ctx context.Context,
	runIDs []string,
	date time.Time,
) ([]*model.ScheduledItem, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	dayStart := model.DateOf(date)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return r.queryItems(ctx, `
		AND p.schedule_datetime >= $2 AND p.schedule_datetime < $3
	`, runIDs, dayStart, dayEnd)
}

// ItemsForEmployeeBetween returns an employee's placed proposals from the given
// runs in [start, end) with events joined.
func (r *PendingAssignmentRepo) ItemsForEmployeeBetween(
	ctx context.Context,
	params core.PendingItemsParams,
) ([]*model.ScheduledItem, error) {
	if len(params.RunIDs) == 0 {
		return nil, nil
	}
	return r.queryItems(ctx, `
		AND p.employee_id = $2 AND p.schedule_datetime >= $3 AND p.schedule_datetime < $4
	`, params.RunIDs, params.EmployeeID, params.Start, params.End)
}

func (r *PendingAssignmentRepo) queryItems(
	ctx context.Context,
	where string,
	runIDs []string,
	args ...any,
) ([]*model.ScheduledItem, error) {
	queryArgs := append([]any{runIDs}, args...)
	var items []*model.ScheduledItem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT p.id, p.event_ref, p.employee_id, p.schedule_datetime,
				e.project_ref, e.name, e.type, e.start_datetime, e.due_datetime,
				e.estimated_duration_minutes, e.condition, e.is_scheduled, e.created_at, e.updated_at,
				p.run_id
			FROM pending_assignments p
			JOIN events e ON e.project_ref = p.event_ref
			WHERE p.run_id = ANY($1) AND p.status = 'proposed' AND p.failure_reason IS NULL
		`+where+`
			ORDER BY p.schedule_datetime, p.event_ref
		`, queryArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = collectPendingItems(rows)
		return err
	}); err != nil {
		return nil, fmt.Errorf("query pending schedule items: %w", err)
	}
	return items, nil
}

func collectPendingItems(rows pgx.Rows) ([]*model.ScheduledItem, error) {
	var items []*model.ScheduledItem
	for rows.Next() {
		var (
			item model.ScheduledItem
			ev   model.Event
		)
		if err := rows.Scan(
			&item.ID, &item.EventRef, &item.EmployeeID, &item.ScheduleDatetime,
			&ev.ProjectRef, &ev.Name, &ev.Type, &ev.StartDatetime, &ev.DueDatetime,
			&ev.EstimatedDurationMinutes, &ev.Condition, &ev.IsScheduled, &ev.CreatedAt, &ev.UpdatedAt,
			&item.RunID,
		); err != nil {
			return nil, err
		}
		item.Source = model.ScheduleSourcePending
		item.Event = &ev
		items = append(items, &item)
	}
	return items, rows.Err()
}
