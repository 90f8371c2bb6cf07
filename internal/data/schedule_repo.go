package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// ScheduleRepo provides database operations for committed (published)
// schedules.
type ScheduleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewScheduleRepo creates a new ScheduleRepo with a real time provider.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewScheduleRepoWithTimeProvider creates a ScheduleRepo with a custom time provider.
func NewScheduleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ScheduleRepo {
	return &ScheduleRepo{DB: db, timeProvider: tp}
}

// Create commits a schedule row.
func (r *ScheduleRepo) Create(ctx context.Context, req *model.CreateScheduleRequest) (*model.Schedule, error) {
	if req == nil {
		return nil, errors.New("create schedule request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Schedule
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO schedules (event_ref, employee_id, schedule_datetime, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id, event_ref, employee_id, schedule_datetime, created_at, updated_at
		`, req.EventRef, req.EmployeeID, req.ScheduleDatetime, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Schedule])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return &out, nil
}

// Delete removes a schedule row, reporting whether it existed.
func (r *ScheduleRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return deleted, nil
}

// GetByEventRef returns the committed schedule for an event, or nil when the
// event is not on the published schedule.
func (r *ScheduleRepo) GetByEventRef(ctx context.Context, projectRef int) (*model.Schedule, error) {
	var out model.Schedule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, event_ref, employee_id, schedule_datetime, created_at, updated_at
			FROM schedules WHERE event_ref = $1
		`, projectRef)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Schedule])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule by event ref: %w", err)
	}
	return &out, nil
}

// UpdateDatetime moves a committed schedule in place.
func (r *ScheduleRepo) UpdateDatetime(ctx context.Context, id string, at time.Time) error {
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE schedules SET schedule_datetime = $2, updated_at = $3 WHERE id = $1
		`, id, at, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrScheduleNotFound
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return err
		}
		return fmt.Errorf("update schedule datetime: %w", err)
	}
	return nil
}

// ItemsOnDate returns committed schedules on a calendar date with their events
// joined, ordered by schedule time then event ref.
func (r *ScheduleRepo) ItemsOnDate(ctx context.Context, date time.Time) ([]*model.ScheduledItem, error) {
	dayStart := model.DateOf(date)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return r.queryItems(ctx, `
		WHERE s.schedule_datetime >= $1 AND s.schedule_datetime < $2
	`, dayStart, dayEnd)
}

// ItemsForEmployeeBetween returns an employee's committed schedules in
// [start, end) with events joined.
func (r *ScheduleRepo) ItemsForEmployeeBetween(
	ctx context.Context,
	employeeID string,
	start, end time.Time,
) ([]*model.ScheduledItem, error) {
	return r.queryItems(ctx, `
		WHERE s.employee_id = $1 AND s.schedule_datetime >= $2 AND s.schedule_datetime < $3
	`, employeeID, start, end)
}

func (r *ScheduleRepo) queryItems(ctx context.Context, where string, args ...any) ([]*model.ScheduledItem, error) {
	var items []*model.ScheduledItem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT s.id, s.event_ref, s.employee_id, s.schedule_datetime,
				e.project_ref, e.name, e.type, e.start_datetime, e.due_datetime,
				e.estimated_duration_minutes, e.condition, e.is_scheduled, e.created_at, e.updated_at
			FROM schedules s
			JOIN events e ON e.project_ref = s.event_ref
		`+where+`
			ORDER BY s.schedule_datetime, s.event_ref
		`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = collectScheduledItems(rows, model.ScheduleSourceCommitted)
		return err
	}); err != nil {
		return nil, fmt.Errorf("query committed schedule items: %w", err)
	}
	return items, nil
}

// collectScheduledItems scans joined schedule+event rows into ScheduledItems.
// The first four columns identify the schedule-like row; the rest are the event.
func collectScheduledItems(rows pgx.Rows, source model.ScheduleSource) ([]*model.ScheduledItem, error) {
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
		); err != nil {
			return nil, err
		}
		item.Source = source
		item.Event = &ev
		items = append(items, &item)
	}
	return items, rows.Err()
}
