package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

const rotationColumns = `id, day_of_week, rotation_type, primary_employee_id,
	backup_employee_id, created_at, updated_at`

// RotationRepo provides database operations for weekly rotations and their
// one-time exceptions.
type RotationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRotationRepo creates a new RotationRepo with a real time provider.
func NewRotationRepo(db *sql.DB) *RotationRepo {
	return &RotationRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewRotationRepoWithTimeProvider creates a RotationRepo with a custom time provider.
func NewRotationRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RotationRepo {
	return &RotationRepo{DB: db, timeProvider: tp}
}

// GetAssignment returns the weekly assignment for (day, type), or nil.
func (r *RotationRepo) GetAssignment(
	ctx context.Context,
	dayOfWeek int,
	rt model.RotationType,
) (*model.RotationAssignment, error) {
	var out model.RotationAssignment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+rotationColumns+`
			FROM rotation_assignments WHERE day_of_week = $1 AND rotation_type = $2
		`, dayOfWeek, rt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RotationAssignment])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rotation assignment: %w", err)
	}
	return &out, nil
}

// ListAssignments retrieves all weekly assignments ordered by day then type.
func (r *RotationRepo) ListAssignments(ctx context.Context) ([]*model.RotationAssignment, error) {
	var rowsOut []model.RotationAssignment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+rotationColumns+`
			FROM rotation_assignments ORDER BY day_of_week, rotation_type
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RotationAssignment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list rotation assignments: %w", err)
	}

	res := make([]*model.RotationAssignment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Upsert inserts or replaces the assignment keyed on (day_of_week, rotation_type).
func (r *RotationRepo) Upsert(
	ctx context.Context,
	req *model.SetRotationRequest,
) (*model.RotationAssignment, error) {
	if req == nil {
		return nil, errors.New("set rotation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.RotationAssignment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO rotation_assignments (
				day_of_week, rotation_type, primary_employee_id, backup_employee_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (day_of_week, rotation_type) DO UPDATE SET
				primary_employee_id = EXCLUDED.primary_employee_id,
				backup_employee_id = EXCLUDED.backup_employee_id,
				updated_at = EXCLUDED.updated_at
			RETURNING `+rotationColumns,
			req.DayOfWeek, req.RotationType, req.PrimaryEmployeeID, req.BackupEmployeeID,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RotationAssignment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("upsert rotation assignment: %w", mapForeignKeyErr(err))
	}
	return &out, nil
}

// ReplaceAll atomically deletes and reinserts the full rotation table. Any
// failure rolls the whole replacement back.
func (r *RotationRepo) ReplaceAll(ctx context.Context, reqs []*model.SetRotationRequest) error {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
	}

	now := r.timeProvider.Now().UTC()
	if err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM rotation_assignments`); err != nil {
			return err
		}
		for _, req := range reqs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO rotation_assignments (
					day_of_week, rotation_type, primary_employee_id, backup_employee_id, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $5)
			`, req.DayOfWeek, req.RotationType, req.PrimaryEmployeeID, req.BackupEmployeeID, now); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("replace rotations: %w", mapForeignKeyErr(err))
	}
	return nil
}

// UpsertException inserts or replaces the exception keyed on (date, rotation_type).
func (r *RotationRepo) UpsertException(
	ctx context.Context,
	req *model.AddRotationExceptionRequest,
) (*model.RotationException, error) {
	if req == nil {
		return nil, errors.New("add rotation exception request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.RotationException
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO rotation_exceptions (date, rotation_type, employee_id, reason, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (date, rotation_type) DO UPDATE SET
				employee_id = EXCLUDED.employee_id,
				reason = EXCLUDED.reason
			RETURNING id, date, rotation_type, employee_id, reason, created_at
		`, model.DateOf(req.Date), req.RotationType, req.EmployeeID, req.Reason,
			r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RotationException])
		return err
	}); err != nil {
		return nil, fmt.Errorf("upsert rotation exception: %w", mapForeignKeyErr(err))
	}
	return &out, nil
}

// GetException returns the override for (date, rotation type), or nil.
func (r *RotationRepo) GetException(
	ctx context.Context,
	date time.Time,
	rt model.RotationType,
) (*model.RotationException, error) {
	var out model.RotationException
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, date, rotation_type, employee_id, reason, created_at
			FROM rotation_exceptions WHERE date = $1 AND rotation_type = $2
		`, model.DateOf(date), rt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RotationException])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rotation exception: %w", err)
	}
	return &out, nil
}

// ListExceptions retrieves exceptions with dates in [start, end].
func (r *RotationRepo) ListExceptions(ctx context.Context, start, end time.Time) ([]*model.RotationException, error) {
	var rowsOut []model.RotationException
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, date, rotation_type, employee_id, reason, created_at
			FROM rotation_exceptions
			WHERE date >= $1 AND date <= $2
			ORDER BY date, rotation_type
		`, model.DateOf(start), model.DateOf(end))
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RotationException])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list rotation exceptions: %w", err)
	}

	res := make([]*model.RotationException, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// DeleteException removes an exception, reporting whether it existed.
func (r *RotationRepo) DeleteException(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM rotation_exceptions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("delete rotation exception: %w", err)
	}
	return deleted, nil
}

// mapForeignKeyErr converts employee foreign-key violations into
// ErrEmployeeNotFound so callers can treat bad references as validation input.
func mapForeignKeyErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return ErrEmployeeNotFound
	}
	return err
}
