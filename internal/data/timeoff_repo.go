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

// TimeOffRepo provides database operations for time-off records.
type TimeOffRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTimeOffRepo creates a new TimeOffRepo with a real time provider.
func NewTimeOffRepo(db *sql.DB) *TimeOffRepo {
	return &TimeOffRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewTimeOffRepoWithTimeProvider creates a TimeOffRepo with a custom time provider.
func NewTimeOffRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TimeOffRepo {
	return &TimeOffRepo{DB: db, timeProvider: tp}
}

// Create records a time-off range.
func (r *TimeOffRepo) Create(ctx context.Context, req *model.CreateTimeOffRequest) (*model.TimeOff, error) {
	if req == nil {
		return nil, errors.New("create time off request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.TimeOff
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO time_off (employee_id, start_date, end_date, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, employee_id, start_date, end_date, created_at
		`, req.EmployeeID, model.DateOf(req.StartDate), model.DateOf(req.EndDate),
			r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TimeOff])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create time off: %w", mapForeignKeyErr(err))
	}
	return &out, nil
}

// HasTimeOff reports whether the employee has time off covering the date.
func (r *TimeOffRepo) HasTimeOff(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	var exists bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM time_off
				WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $2
			)
		`, employeeID, model.DateOf(date)).Scan(&exists)
	}); err != nil {
		return false, fmt.Errorf("check time off: %w", err)
	}
	return exists, nil
}

// ListForEmployee retrieves an employee's time-off records, earliest first.
func (r *TimeOffRepo) ListForEmployee(ctx context.Context, employeeID string) ([]*model.TimeOff, error) {
	var rowsOut []model.TimeOff
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, employee_id, start_date, end_date, created_at
			FROM time_off WHERE employee_id = $1 ORDER BY start_date, id
		`, employeeID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TimeOff])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}

	res := make([]*model.TimeOff, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete removes a time-off record, reporting whether it existed.
func (r *TimeOffRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM time_off WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("delete time off: %w", err)
	}
	return deleted, nil
}
