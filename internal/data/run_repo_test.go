package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/testutil"
)

func TestSchedulerRunRepo_Lifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerRunRepo(db)

		run, err := repo.Create(ctx, model.RunTypeAutomatic, time.Time{})
		require.NoError(t, err)
		require.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)
		assert.NotZero(t, run.StartedAt)
		assert.True(t, run.Active())

		_, err = repo.Create(ctx, model.RunType("nightly"), time.Time{})
		assert.Error(t, err)

		// A running run blocks approval.
		err = repo.Approve(ctx, run.ID, time.Now().UTC())
		assert.ErrorIs(t, err, ErrRunNotCompleted)

		now := time.Now().UTC().Truncate(time.Microsecond)
		run.Status = model.RunStatusCompleted
		run.CompletedAt = &now
		run.TotalProcessed = 12
		run.Scheduled = 9
		run.Failed = 3
		require.NoError(t, repo.Update(ctx, run))

		got, err := repo.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, got.Status)
		assert.Equal(t, 12, got.TotalProcessed)
		assert.Equal(t, 9, got.Scheduled)
		assert.Equal(t, 3, got.Failed)
		assert.True(t, got.Active(), "completed unapproved runs stay active")

		require.NoError(t, repo.Approve(ctx, run.ID, time.Now().UTC()))
		got, err = repo.GetByID(ctx, run.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ApprovedAt)
		assert.False(t, got.Active())
	})
}

func TestSchedulerRunRepo_ListActiveIDs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerRunRepo(db)

		first, err := repo.Create(ctx, model.RunTypeManual, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		second, err := repo.Create(ctx, model.RunTypeManual, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		failed, err := repo.Create(ctx, model.RunTypeManual, time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		msg := "backlog load failed"
		failed.Status = model.RunStatusFailed
		failed.ErrorMessage = &msg
		require.NoError(t, repo.Update(ctx, failed))

		ids, err := repo.ListActiveIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID}, ids, "started_at order, failed runs excluded")

		now := time.Now().UTC()
		second.Status = model.RunStatusCompleted
		second.CompletedAt = &now
		require.NoError(t, repo.Update(ctx, second))
		require.NoError(t, repo.Approve(ctx, second.ID, now))

		ids, err = repo.ListActiveIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID}, ids)
	})
}

func TestSchedulerRunRepo_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerRunRepo(db)

		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrRunNotFound)

		err = repo.Approve(ctx, "00000000-0000-0000-0000-000000000000", time.Now().UTC())
		assert.ErrorIs(t, err, ErrRunNotFound)

		missing := &model.SchedulerRun{
			ID:      "00000000-0000-0000-0000-000000000000",
			RunType: model.RunTypeManual,
			Status:  model.RunStatusCompleted,
		}
		err = repo.Update(ctx, missing)
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}
