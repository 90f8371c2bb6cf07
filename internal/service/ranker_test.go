package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/service"
)

func TestLeastLoadedRankerOrdersByWeekLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	// Liam carries two committed items in the week of day(4); Mira one;
	// Sam none.
	seedCommitted(f, "s-1", 450001, "lead-liam", 3, 10)
	seedCommitted(f, "s-2", 450002, "lead-liam", 4, 10)
	seedCommitted(f, "s-3", 450003, "lead-mira", 4, 10)

	ranker := service.NewLeastLoadedRanker(service.LeastLoadedRankerOptions{
		Schedules: f.store.Schedules,
		Logger:    quietLogger(),
	})

	pool := []*model.Employee{
		{ID: "lead-liam", Name: "Liam"},
		{ID: "lead-mira", Name: "Mira"},
		{ID: "es-sam", Name: "Sam"},
	}
	ranked, err := ranker.Rank(ctx, core.RankParams{Date: day(4), Candidates: pool})
	require.NoError(t, err)

	ids := make([]string, 0, len(ranked))
	for _, emp := range ranked {
		ids = append(ids, emp.ID)
	}
	assert.Equal(t, []string{"es-sam", "lead-mira", "lead-liam"}, ids)
	// The incoming pool is untouched.
	assert.Equal(t, "lead-liam", pool[0].ID)
}

func TestLeastLoadedRankerKeepsPoolOrderOnTies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	ranker := service.NewLeastLoadedRanker(service.LeastLoadedRankerOptions{
		Schedules: f.store.Schedules,
	})

	pool := []*model.Employee{
		{ID: "lead-liam", Name: "Liam"},
		{ID: "es-sam", Name: "Sam"},
		{ID: "lead-mira", Name: "Mira"},
	}
	ranked, err := ranker.Rank(ctx, core.RankParams{Date: day(4), Candidates: pool})
	require.NoError(t, err)

	ids := make([]string, 0, len(ranked))
	for _, emp := range ranked {
		ids = append(ids, emp.ID)
	}
	assert.Equal(t, []string{"lead-liam", "es-sam", "lead-mira"}, ids)
}
