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

func createTestEvent(t *testing.T, db *sql.DB, ref int, name string, due time.Time) *model.Event {
	t.Helper()
	repo := NewEventRepo(db)
	ev, err := repo.Upsert(context.Background(), &model.CreateEventRequest{
		ProjectRef:               ref,
		Name:                     name,
		Type:                     model.EventTypeCore,
		StartDatetime:            due.AddDate(0, 0, -7),
		DueDatetime:              due,
		EstimatedDurationMinutes: 360,
		Condition:                model.EventConditionUnstaffed,
	})
	require.NoError(t, err)
	return ev
}

func TestEventRepo_Upsert_InsertAndUpdate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewEventRepo(db)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

		ev := createTestEvent(t, db, 450002, "Core Demo 450002", due)
		assert.False(t, ev.IsScheduled)

		require.NoError(t, repo.SetScheduled(ctx, 450002, true))

		// Re-ingesting the same ref refreshes fields but keeps is_scheduled.
		updated, err := repo.Upsert(ctx, &model.CreateEventRequest{
			ProjectRef:               450002,
			Name:                     "Core Demo 450002 Revised",
			Type:                     model.EventTypeCore,
			StartDatetime:            due.AddDate(0, 0, -5),
			DueDatetime:              due.AddDate(0, 0, 2),
			EstimatedDurationMinutes: 300,
			Condition:                model.EventConditionUnstaffed,
		})
		require.NoError(t, err)
		assert.Equal(t, "Core Demo 450002 Revised", updated.Name)
		assert.Equal(t, 300, updated.EstimatedDurationMinutes)
		assert.True(t, updated.IsScheduled, "scheduling state survives re-ingest")
	})
}

func TestEventRepo_GetByRef_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewEventRepo(db)
		_, err := repo.GetByRef(context.Background(), 999999)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestEventRepo_ListUnscheduled_FiltersAndOrder(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewEventRepo(db)
		now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

		createTestEvent(t, db, 450010, "Core Demo Late", now.AddDate(0, 0, 10))
		createTestEvent(t, db, 450011, "Core Demo Soon", now.AddDate(0, 0, 4))
		createTestEvent(t, db, 450009, "Core Demo Soon Too", now.AddDate(0, 0, 4))
		createTestEvent(t, db, 450012, "Core Demo Past", now.AddDate(0, 0, -1))
		staffed := createTestEvent(t, db, 450013, "Core Demo Staffed", now.AddDate(0, 0, 6))
		require.NoError(t, repo.SetScheduled(ctx, staffed.ProjectRef, true))

		events, err := repo.ListUnscheduled(ctx, now)
		require.NoError(t, err)
		require.Len(t, events, 3)
		// Due first; equal due dates break ties on ref.
		assert.Equal(t, 450009, events[0].ProjectRef)
		assert.Equal(t, 450011, events[1].ProjectRef)
		assert.Equal(t, 450010, events[2].ProjectRef)
	})
}

func TestEventRepo_FindScheduledEventByNumber(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewEventRepo(db)
		due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

		createTestEvent(t, db, 450002, "Core Demo 450002", due)
		require.NoError(t, repo.SetScheduled(ctx, 450002, true))

		// A second scheduled core carries the same number; the lower ref wins.
		createTestEvent(t, db, 450099, "Core Demo 450002 Repeat", due)
		require.NoError(t, repo.SetScheduled(ctx, 450099, true))

		found, err := repo.FindScheduledEventByNumber(ctx, model.EventTypeCore, "450002")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 450002, found.ProjectRef)

		// Unscheduled events never match.
		found, err = repo.FindScheduledEventByNumber(ctx, model.EventTypeSupervisor, "450002")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestEventRepo_SetScheduled_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewEventRepo(db)
		err := repo.SetScheduled(context.Background(), 999999, true)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}
