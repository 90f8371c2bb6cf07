package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/mocks/memrepo"
	"github.com/fieldops/demo-scheduler/internal/testutil"
)

func TestRosterCacheServiceServesFromCache(t *testing.T) {
	ctx := context.Background()
	store := memrepo.NewStore()
	store.Employees.Seed(
		testutil.NewEmployee("emp-1", "Ada").Build(),
		testutil.NewEmployee("emp-2", "Ben").AsLead().Build(),
		testutil.NewEmployee("emp-3", "Carol").Inactive().Build(),
	)
	cache := memrepo.NewCache()

	svc := core.NewRosterCacheService(core.RosterCacheServiceOptions{
		Cache:     cache,
		Employees: store.Employees,
		Config:    core.RosterCacheConfig{TTL: time.Minute},
	})

	roster, err := svc.ActiveEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2, "inactive employees are excluded")
	assert.Equal(t, "Ada", roster[0].Name)
	assert.Equal(t, "Ben", roster[1].Name)

	// A change behind the cache is invisible until invalidation.
	_, err = store.Employees.SetActive(ctx, "emp-1", false)
	require.NoError(t, err)

	roster, err = svc.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	require.NoError(t, svc.Invalidate(ctx))
	roster, err = svc.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Equal(t, "Ben", roster[0].Name)
}

func TestRosterCacheServiceWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := memrepo.NewStore()
	store.Employees.Seed(testutil.NewEmployee("emp-1", "Ada").Build())

	svc := core.NewRosterCacheService(core.RosterCacheServiceOptions{
		Employees: store.Employees,
	})

	roster, err := svc.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.NoError(t, svc.Invalidate(ctx), "invalidate is a no-op without a cache")
}

func TestRosterCacheServiceDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := memrepo.NewStore()
	store.Employees.Seed(testutil.NewEmployee("emp-1", "Ada").Build())
	cache := memrepo.NewCache()
	require.NoError(t, cache.Set(ctx, "scheduler:roster:active", []byte("{not json"), time.Minute))

	svc := core.NewRosterCacheService(core.RosterCacheServiceOptions{
		Cache:     cache,
		Employees: store.Employees,
	})

	roster, err := svc.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}
