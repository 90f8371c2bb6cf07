// Package data provides Postgres repositories for the demo-scheduler engine.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/demo-scheduler/internal/data/pgxutil"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// EmployeeRepo provides database operations for the employee roster.
type EmployeeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEmployeeRepo creates a new EmployeeRepo with a real time provider.
func NewEmployeeRepo(db *sql.DB) *EmployeeRepo {
	return &EmployeeRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewEmployeeRepoWithTimeProvider creates an EmployeeRepo with a custom time provider.
func NewEmployeeRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *EmployeeRepo {
	return &EmployeeRepo{DB: db, timeProvider: tp}
}

// Create inserts a new employee.
func (r *EmployeeRepo) Create(ctx context.Context, req *model.CreateEmployeeRequest) (*model.Employee, error) {
	if req == nil {
		return nil, errors.New("create employee request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var out model.Employee
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO employees (name, job_title, active, juicer_trained, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id, name, job_title, active, juicer_trained, created_at, updated_at
		`,
			strings.TrimSpace(req.Name),
			req.JobTitle,
			active,
			req.JuicerTrained,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Employee])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return &out, nil
}

// GetByID retrieves an employee by ID.
func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var out model.Employee
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, name, job_title, active, juicer_trained, created_at, updated_at
			FROM employees WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Employee])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee by id: %w", err)
	}
	return &out, nil
}

// ListActive retrieves active employees in stable (name, id) order.
func (r *EmployeeRepo) ListActive(ctx context.Context) ([]*model.Employee, error) {
	var rowsOut []model.Employee
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, name, job_title, active, juicer_trained, created_at, updated_at
			FROM employees WHERE active ORDER BY name, id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Employee])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	res := make([]*model.Employee, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// SetActive flips the active flag, reporting whether the row existed.
func (r *EmployeeRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	var updated bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE employees SET active = $2, updated_at = $3 WHERE id = $1
		`, id, active, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		updated = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("set employee active: %w", err)
	}
	return updated, nil
}
