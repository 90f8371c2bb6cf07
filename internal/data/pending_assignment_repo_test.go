package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/testutil"
)

func createTestRun(t *testing.T, db *sql.DB) *model.SchedulerRun {
	t.Helper()
	repo := NewSchedulerRunRepo(db)
	run, err := repo.Create(context.Background(), model.RunTypeManual, time.Time{})
	require.NoError(t, err)
	return run
}

func placementReq(runID string, ref int, employeeID string, at time.Time) *model.CreatePendingAssignmentRequest {
	return &model.CreatePendingAssignmentRequest{
		RunID:            runID,
		EventRef:         ref,
		EmployeeID:       &employeeID,
		ScheduleDatetime: &at,
	}
}

func TestPendingAssignmentRepo_CreateAndUniqueness(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPendingAssignmentRepo(db)

		run := createTestRun(t, db)
		emp := createTestEmployee(t, db, "Liam", model.JobTitleLeadEventSpecialist)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		createTestEvent(t, db, 450002, "Core Demo 450002", due)
		at := time.Date(2026, 3, 6, 10, 15, 0, 0, time.UTC)

		pa, err := repo.Create(ctx, placementReq(run.ID, 450002, emp.ID, at))
		require.NoError(t, err)
		require.NotEmpty(t, pa.ID)
		assert.Equal(t, model.AssignmentStatusProposed, pa.Status)
		assert.True(t, pa.Placed())

		// One proposal per (run, event).
		_, err = repo.Create(ctx, placementReq(run.ID, 450002, emp.ID, at))
		assert.Error(t, err)

		// Another run may still hold its own proposal for the event.
		other := createTestRun(t, db)
		_, err = repo.Create(ctx, placementReq(other.ID, 450002, emp.ID, at))
		assert.NoError(t, err)
	})
}

func TestPendingAssignmentRepo_FailureRows(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPendingAssignmentRepo(db)

		run := createTestRun(t, db)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		createTestEvent(t, db, 450002, "Core Demo 450002", due)

		reason := "no available employees"
		pa, err := repo.Create(ctx, &model.CreatePendingAssignmentRequest{
			RunID:         run.ID,
			EventRef:      450002,
			FailureReason: &reason,
		})
		require.NoError(t, err)
		assert.True(t, pa.Failed())
		assert.False(t, pa.Placed())

		// A failure row cannot be re-pointed at an employee.
		err = repo.UpdatePlacement(ctx, pa.ID, "someone", due)
		assert.ErrorIs(t, err, ErrAssignmentNotPlaced)
	})
}

func TestPendingAssignmentRepo_ListByRunAndSupersede(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPendingAssignmentRepo(db)

		first := createTestRun(t, db)
		second := createTestRun(t, db)
		emp := createTestEmployee(t, db, "Liam", model.JobTitleLeadEventSpecialist)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		createTestEvent(t, db, 450002, "Core Demo 450002", due)
		createTestEvent(t, db, 450003, "Core Demo 450003", due)
		at := time.Date(2026, 3, 6, 10, 15, 0, 0, time.UTC)

		a, err := repo.Create(ctx, placementReq(first.ID, 450002, emp.ID, at))
		require.NoError(t, err)
		b, err := repo.Create(ctx, placementReq(first.ID, 450003, emp.ID, at.Add(time.Hour)))
		require.NoError(t, err)

		rows, err := repo.ListByRun(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, a.ID, rows[0].ID)
		assert.Equal(t, b.ID, rows[1].ID)

		// The second run takes over event 450002; the first run's row flips to
		// superseded, its own stays proposed.
		_, err = repo.Create(ctx, placementReq(second.ID, 450002, emp.ID, at))
		require.NoError(t, err)
		affected, err := repo.MarkSupersededForEvent(ctx, 450002, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		old, err := repo.GetByRunAndEvent(ctx, first.ID, 450002)
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.Equal(t, model.AssignmentStatusSuperseded, old.Status)
		assert.False(t, old.Placed())

		current, err := repo.GetByRunAndEvent(ctx, second.ID, 450002)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, model.AssignmentStatusProposed, current.Status)

		missing, err := repo.GetByRunAndEvent(ctx, second.ID, 450099)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestPendingAssignmentRepo_Items(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPendingAssignmentRepo(db)

		run := createTestRun(t, db)
		emp := createTestEmployee(t, db, "Liam", model.JobTitleLeadEventSpecialist)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		createTestEvent(t, db, 450002, "Core Demo 450002", due)
		createTestEvent(t, db, 450003, "Core Demo 450003", due)
		at := time.Date(2026, 3, 6, 10, 15, 0, 0, time.UTC)

		_, err := repo.Create(ctx, placementReq(run.ID, 450002, emp.ID, at))
		require.NoError(t, err)

		// Failure rows never show up as items.
		reason := "outside window"
		_, err = repo.Create(ctx, &model.CreatePendingAssignmentRequest{
			RunID:         run.ID,
			EventRef:      450003,
			FailureReason: &reason,
		})
		require.NoError(t, err)

		items, err := repo.ItemsOnDate(ctx, []string{run.ID}, at)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 450002, items[0].EventRef)
		assert.Equal(t, model.ScheduleSourcePending, items[0].Source)
		require.NotNil(t, items[0].Event)
		assert.Equal(t, "Core Demo 450002", items[0].Event.Name)

		// No run ids, no items.
		items, err = repo.ItemsOnDate(ctx, nil, at)
		require.NoError(t, err)
		assert.Empty(t, items)

		items, err = repo.ItemsForEmployeeBetween(ctx, core.PendingItemsParams{
			RunIDs:     []string{run.ID},
			EmployeeID: emp.ID,
			Start:      at.AddDate(0, 0, -1),
			End:        at.AddDate(0, 0, 1),
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 450002, items[0].EventRef)
	})
}
