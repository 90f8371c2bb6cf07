package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// AvailabilityRepo provides database operations for weekly availability flags.
type AvailabilityRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAvailabilityRepo creates a new AvailabilityRepo with a real time provider.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo {
	return &AvailabilityRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewAvailabilityRepoWithTimeProvider creates an AvailabilityRepo with a custom time provider.
func NewAvailabilityRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AvailabilityRepo {
	return &AvailabilityRepo{DB: db, timeProvider: tp}
}

// GetForEmployee returns the employee's availability row, or nil when none
// exists. Callers treat a missing row as full-week availability.
func (r *AvailabilityRepo) GetForEmployee(ctx context.Context, employeeID string) (*model.WeeklyAvailability, error) {
	var out model.WeeklyAvailability
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT employee_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, updated_at
			FROM weekly_availability WHERE employee_id = $1
		`, employeeID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.WeeklyAvailability])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get weekly availability: %w", err)
	}
	return &out, nil
}

// Upsert inserts or replaces an employee's availability row.
func (r *AvailabilityRepo) Upsert(ctx context.Context, av *model.WeeklyAvailability) error {
	if av == nil || av.EmployeeID == "" {
		return errors.New("weekly availability with employee_id is required")
	}

	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO weekly_availability (
				employee_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (employee_id) DO UPDATE SET
				monday = EXCLUDED.monday,
				tuesday = EXCLUDED.tuesday,
				wednesday = EXCLUDED.wednesday,
				thursday = EXCLUDED.thursday,
				friday = EXCLUDED.friday,
				saturday = EXCLUDED.saturday,
				sunday = EXCLUDED.sunday,
				updated_at = EXCLUDED.updated_at
		`, av.EmployeeID, av.Monday, av.Tuesday, av.Wednesday, av.Thursday,
			av.Friday, av.Saturday, av.Sunday, r.timeProvider.Now().UTC())
		return err
	}); err != nil {
		return fmt.Errorf("upsert weekly availability: %w", mapForeignKeyErr(err))
	}
	return nil
}
