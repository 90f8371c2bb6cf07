package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

const eventColumns = `project_ref, name, type, start_datetime, due_datetime,
	estimated_duration_minutes, condition, is_scheduled, created_at, updated_at`

// EventRepo provides database operations for work-order events.
type EventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEventRepo creates a new EventRepo with a real time provider.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewEventRepoWithTimeProvider creates an EventRepo with a custom time provider.
func NewEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *EventRepo {
	return &EventRepo{DB: db, timeProvider: tp}
}

// Upsert inserts an event or refreshes its mutable fields on conflict.
// Ingestion re-reads the same work-order exports, so refs repeat.
func (r *EventRepo) Upsert(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO events (
				project_ref, name, type, start_datetime, due_datetime,
				estimated_duration_minutes, condition, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (project_ref) DO UPDATE SET
				name = EXCLUDED.name,
				type = EXCLUDED.type,
				start_datetime = EXCLUDED.start_datetime,
				due_datetime = EXCLUDED.due_datetime,
				estimated_duration_minutes = EXCLUDED.estimated_duration_minutes,
				condition = EXCLUDED.condition,
				updated_at = EXCLUDED.updated_at
			RETURNING `+eventColumns,
			req.ProjectRef,
			strings.TrimSpace(req.Name),
			req.Type,
			req.StartDatetime,
			req.DueDatetime,
			req.EstimatedDurationMinutes,
			req.Condition,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("upsert event: %w", err)
	}
	return &out, nil
}

// GetByRef retrieves an event by project reference number.
func (r *EventRepo) GetByRef(ctx context.Context, projectRef int) (*model.Event, error) {
	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+eventColumns+` FROM events WHERE project_ref = $1`, projectRef)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event by ref: %w", err)
	}
	return &out, nil
}

// ListUnscheduled returns unstaffed, unscheduled events whose due datetime has
// not passed, in stable (due, ref) order.
func (r *EventRepo) ListUnscheduled(ctx context.Context, now time.Time) ([]*model.Event, error) {
	var rowsOut []model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+eventColumns+`
			FROM events
			WHERE is_scheduled = FALSE AND condition = 'unstaffed' AND due_datetime >= $1
			ORDER BY due_datetime, project_ref
		`, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list unscheduled events: %w", err)
	}

	res := make([]*model.Event, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// FindScheduledEventByNumber returns the first scheduled event of the given
// type embedding the 6-digit number in its name, or nil. Lowest project ref
// wins when several names share a number.
func (r *EventRepo) FindScheduledEventByNumber(
	ctx context.Context,
	t model.EventType,
	number string,
) (*model.Event, error) {
	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+eventColumns+`
			FROM events
			WHERE type = $1 AND is_scheduled = TRUE AND name LIKE '%' || $2 || '%'
			ORDER BY project_ref
			LIMIT 1
		`, t, number)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find scheduled event by number: %w", err)
	}
	return &out, nil
}

// SetScheduled flips the is_scheduled flag for an event.
func (r *EventRepo) SetScheduled(ctx context.Context, projectRef int, scheduled bool) error {
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE events SET is_scheduled = $2, updated_at = $3 WHERE project_ref = $1
		`, projectRef, scheduled, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrEventNotFound
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("set event scheduled: %w", err)
	}
	return nil
}
