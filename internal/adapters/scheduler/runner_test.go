package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/adapters/scheduler"
	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/mocks/memrepo"
	"github.com/fieldops/demo-scheduler/internal/service"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type runnerFixture struct {
	store  *memrepo.Store
	cache  *memrepo.Cache
	runner *scheduler.Runner
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()

	store := memrepo.NewStore()
	clock := data.NewFixedTimeProvider(testNow)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := core.DefaultEngineConfig()
	cfg.Location = time.UTC

	roster := core.NewRosterCacheService(core.RosterCacheServiceOptions{Employees: store.Employees})
	validator := service.NewConstraintValidatorService(service.ConstraintValidatorOptions{
		Schedules:    store.Schedules,
		Pendings:     store.Pendings,
		Runs:         store.Runs,
		TimeOff:      store.TimeOff,
		Availability: store.Availability,
		Holidays:     store.Holidays,
		Roster:       roster,
		Config:       &cfg,
		TimeProvider: clock,
		Logger:       logger,
	})
	rotations := service.NewRotationManagerService(service.RotationManagerOptions{
		Rotations: store.Rotations,
		Roster:    roster,
		Logger:    logger,
	})
	conflicts := service.NewConflictResolverService(service.ConflictResolverOptions{
		Schedules:    store.Schedules,
		Holidays:     store.Holidays,
		Roster:       roster,
		Config:       &cfg,
		TimeProvider: clock,
		Logger:       logger,
	})
	engine := service.NewSchedulingEngineService(service.SchedulingEngineOptions{
		Events:       store.Events,
		Schedules:    store.Schedules,
		Pendings:     store.Pendings,
		Runs:         store.Runs,
		Roster:       roster,
		Validator:    validator,
		Rotations:    rotations,
		Conflicts:    conflicts,
		Config:       &cfg,
		TimeProvider: clock,
		Logger:       logger,
	})

	cache := memrepo.NewCache()
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Engine:   engine,
		Runs:     store.Runs,
		Cache:    cache,
		Interval: time.Minute,
		Logger:   logger,
		Metrics:  scheduler.NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	return &runnerFixture{store: store, cache: cache, runner: runner}
}

func TestNewRunnerRequiresEngineAndRuns(t *testing.T) {
	_, err := scheduler.NewRunner(scheduler.RunnerOptions{})
	assert.Error(t, err)

	_, err = scheduler.NewRunner(scheduler.RunnerOptions{Runs: memrepo.NewStore().Runs})
	assert.Error(t, err)
}

func TestTickRunsEngineOnce(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)

	f.runner.Tick(ctx)

	ids, err := f.store.Runs.ListActiveIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	run, err := f.store.Runs.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.RunTypeAutomatic, run.RunType)
	assert.Equal(t, model.RunStatusCompleted, run.Status)

	// The lock is released after the run.
	got, err := f.cache.SetIfNotExists(ctx, "scheduler:run-lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestTickSkipsWhileRunAwaitsApproval(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)

	f.runner.Tick(ctx)
	f.runner.Tick(ctx)

	ids, err := f.store.Runs.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1, "an unapproved completed run blocks new ticks")
}

func TestTickResumesAfterApproval(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)

	f.runner.Tick(ctx)
	ids, err := f.store.Runs.ListActiveIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	require.NoError(t, f.store.Runs.Approve(ctx, ids[0], testNow))
	f.runner.Tick(ctx)

	ids, err = f.store.Runs.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1, "approval frees the next tick to open a fresh run")
}

func TestTickSkipsWhenAnotherReplicaHoldsLock(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)

	got, err := f.cache.SetIfNotExists(ctx, "scheduler:run-lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	require.True(t, got)

	f.runner.Tick(ctx)

	ids, err := f.store.Runs.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newRunnerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.runner.Run(ctx)
	assert.NoError(t, err, "cancellation is a clean shutdown")
}
