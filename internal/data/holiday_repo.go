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

// HolidayRepo provides database operations for company holidays.
type HolidayRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewHolidayRepo creates a new HolidayRepo with a real time provider.
func NewHolidayRepo(db *sql.DB) *HolidayRepo {
	return &HolidayRepo{DB: db, timeProvider: NewRealTimeProvider(nil)}
}

// NewHolidayRepoWithTimeProvider creates a HolidayRepo with a custom time provider.
func NewHolidayRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *HolidayRepo {
	return &HolidayRepo{DB: db, timeProvider: tp}
}

// Create records a company holiday, replacing the name on duplicate dates.
func (r *HolidayRepo) Create(ctx context.Context, date time.Time, name string) (*model.CompanyHoliday, error) {
	if date.IsZero() {
		return nil, errors.New("date is required")
	}

	var out model.CompanyHoliday
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO company_holidays (date, name, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, date, name, created_at
		`, model.DateOf(date), name, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.CompanyHoliday])
		return err
	}); err != nil {
		return nil, fmt.Errorf("create company holiday: %w", err)
	}
	return &out, nil
}

// GetByDate returns the holiday on the given date, or nil.
func (r *HolidayRepo) GetByDate(ctx context.Context, date time.Time) (*model.CompanyHoliday, error) {
	var out model.CompanyHoliday
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, date, name, created_at FROM company_holidays WHERE date = $1
		`, model.DateOf(date))
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.CompanyHoliday])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company holiday: %w", err)
	}
	return &out, nil
}

// ListBetween retrieves holidays with dates in [start, end].
func (r *HolidayRepo) ListBetween(ctx context.Context, start, end time.Time) ([]*model.CompanyHoliday, error) {
	var rowsOut []model.CompanyHoliday
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, date, name, created_at FROM company_holidays
			WHERE date >= $1 AND date <= $2 ORDER BY date
		`, model.DateOf(start), model.DateOf(end))
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.CompanyHoliday])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list company holidays: %w", err)
	}

	res := make([]*model.CompanyHoliday, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
