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

const runColumns = `id, run_type, status, started_at, completed_at, approved_at,
	total_processed, scheduled, failed, requiring_swaps, error_message`

// SchedulerRunRepo provides database operations for scheduler runs.
type SchedulerRunRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSchedulerRunRepo creates a new SchedulerRunRepo with a real time provider.
func NewSchedulerRunRepo(db *sql.DB) *SchedulerRunRepo {
	return &SchedulerRunRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewSchedulerRunRepoWithTimeProvider creates a SchedulerRunRepo with a custom
// time provider.
func NewSchedulerRunRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SchedulerRunRepo {
	return &SchedulerRunRepo{DB: db, timeProvider: tp}
}

// Create opens a new run in the running state.
func (r *SchedulerRunRepo) Create(
	ctx context.Context,
	runType model.RunType,
	startedAt time.Time,
) (*model.SchedulerRun, error) {
	if !runType.Valid() {
		return nil, fmt.Errorf("invalid run type: %s", runType)
	}
	if startedAt.IsZero() {
		startedAt = r.timeProvider.Now()
	}

	var out model.SchedulerRun
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO scheduler_runs (run_type, status, started_at)
			VALUES ($1, 'running', $2)
			RETURNING `+runColumns,
			runType, startedAt.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SchedulerRun])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create scheduler run: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a run by id.
func (r *SchedulerRunRepo) GetByID(ctx context.Context, id string) (*model.SchedulerRun, error) {
	var out model.SchedulerRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+runColumns+` FROM scheduler_runs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SchedulerRun])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("get scheduler run: %w", err)
	}
	return &out, nil
}

// Update writes the run's status, counters, completion time and error message.
func (r *SchedulerRunRepo) Update(ctx context.Context, run *model.SchedulerRun) error {
	if run == nil || run.ID == "" {
		return errors.New("scheduler run with id is required")
	}
	if !run.Status.Valid() {
		return fmt.Errorf("invalid run status: %s", run.Status)
	}

	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE scheduler_runs
			SET status = $2, completed_at = $3, total_processed = $4,
				scheduled = $5, failed = $6, requiring_swaps = $7, error_message = $8
			WHERE id = $1
		`, run.ID, run.Status, run.CompletedAt, run.TotalProcessed,
			run.Scheduled, run.Failed, run.RequiringSwaps, run.ErrorMessage)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRunNotFound
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return err
		}
		return fmt.Errorf("update scheduler run: %w", err)
	}
	return nil
}

// ListActiveIDs returns ids of unapproved runs still holding live proposals,
// oldest first. Failed runs are excluded.
func (r *SchedulerRunRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id FROM scheduler_runs
			WHERE approved_at IS NULL AND status IN ('running', 'completed')
			ORDER BY started_at, id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list active scheduler runs: %w", err)
	}
	return ids, nil
}

// Approve stamps approved_at on a completed run. Approving a run retires its
// proposals from other runs' conflict checks.
func (r *SchedulerRunRepo) Approve(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE scheduler_runs SET approved_at = $2
			WHERE id = $1 AND status = 'completed'
		`, id, at.UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			run, getErr := r.GetByID(ctx, id)
			if getErr != nil {
				return getErr
			}
			if run.Status != model.RunStatusCompleted {
				return ErrRunNotCompleted
			}
			return nil
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotCompleted) {
			return err
		}
		return fmt.Errorf("approve scheduler run: %w", err)
	}
	return nil
}
