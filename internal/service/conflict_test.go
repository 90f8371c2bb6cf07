package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// seedCommitted stores a core schedule with its scheduled event behind it.
func seedCommitted(f *fixture, id string, ref int, empID string, atTime, due int) {
	ev := coreEvent(ref, "Core Demo Held", 0, due)
	ev.IsScheduled = true
	f.store.Events.Seed(ev)
	f.store.Schedules.Seed(&model.Schedule{
		ID: id, EventRef: ref, EmployeeID: empID, ScheduleDatetime: at(atTime, 10, 15),
	})
}

func TestPriorityScoreFloorsAtZero(t *testing.T) {
	f := newFixture(t, nil)

	overdue := coreEvent(450001, "Core Demo", -10, -2)
	assert.Equal(t, 0, f.conflicts.PriorityScore(overdue, testNow))

	dueIn5 := coreEvent(450002, "Core Demo", 0, 5)
	assert.Equal(t, 5, f.conflicts.PriorityScore(dueIn5, testNow))
}

func TestFindBumpableEventsOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	// Three candidates on day(4): due in 10, due in 5, and one inside the
	// MinDaysToDue guard (due in 1).
	seedCommitted(f, "s-late", 450001, "lead-liam", 4, 10)
	seedCommitted(f, "s-mid", 450002, "lead-mira", 4, 5)
	seedCommitted(f, "s-urgent", 450003, "es-sam", 4, 1)

	// Supervisor checkpoints are never bumpable.
	sup := typedEvent(910002, "Supervisor Checkpoint 450002", model.EventTypeSupervisor, 0, 10, 5)
	sup.IsScheduled = true
	f.store.Events.Seed(sup)
	f.store.Schedules.Seed(&model.Schedule{
		ID: "s-sup", EventRef: 910002, EmployeeID: "sup-dana", ScheduleDatetime: at(4, 12, 0),
	})

	cands, err := f.conflicts.FindBumpableEvents(ctx, day(4), "")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, 450001, cands[0].Item.EventRef, "least urgent first")
	assert.Equal(t, 450002, cands[1].Item.EventRef)

	// Scoped to one employee.
	cands, err = f.conflicts.FindBumpableEvents(ctx, day(4), "lead-mira")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 450002, cands[0].Item.EventRef)
}

func TestResolveConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	seedCommitted(f, "s-late", 450001, "lead-liam", 4, 10)

	urgent := coreEvent(450050, "Core Demo Urgent", 0, 4)
	proposal, err := f.conflicts.ResolveConflict(ctx, urgent, day(4), "")
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, 450050, proposal.HighPriority.ProjectRef)
	assert.Equal(t, 450001, proposal.LowPriority.ProjectRef)
	assert.Equal(t, "lead-liam", proposal.EmployeeID)
	assert.Equal(t, day(4), proposal.TargetDate)

	// No swap when the incumbent is as urgent as the incomer.
	equal := coreEvent(450051, "Core Demo Equal", 0, 10)
	proposal, err = f.conflicts.ResolveConflict(ctx, equal, day(4), "")
	require.NoError(t, err)
	assert.Nil(t, proposal)

	// No swap on an empty date.
	proposal, err = f.conflicts.ResolveConflict(ctx, urgent, day(5), "")
	require.NoError(t, err)
	assert.Nil(t, proposal)
}

func TestValidateSwap(t *testing.T) {
	f := newFixture(t, nil)

	high := coreEvent(450050, "Core Demo Urgent", 0, 4)
	low := coreEvent(450001, "Core Demo Relaxed", 0, 10)
	assert.True(t, f.conflicts.ValidateSwap(high, low))
	assert.False(t, f.conflicts.ValidateSwap(low, high), "cannot bump something more urgent")

	guarded := coreEvent(450002, "Core Demo Guarded", 0, 1)
	assert.False(t, f.conflicts.ValidateSwap(high, guarded), "MinDaysToDue headroom required")

	sup := typedEvent(910002, "Supervisor Checkpoint", model.EventTypeSupervisor, 0, 10, 5)
	assert.False(t, f.conflicts.ValidateSwap(high, sup))
}

func TestFindAlternativeDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	// Window [today, day(4)); day(1) is a holiday, day(2) is busy, day(3)
	// is explicitly excluded.
	_, err := f.store.Holidays.Create(ctx, day(1), "Founders Day")
	require.NoError(t, err)
	seedCommitted(f, "s-busy", 450001, "lead-liam", 2, 10)

	ev := coreEvent(450060, "Core Demo", -2, 4)
	dates, err := f.conflicts.FindAlternativeDates(ctx, ev, "lead-liam", []time.Time{day(3)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(0)}, dates, "start clamps to today; only today survives the filters")

	// Another employee is free on the busy date too.
	dates, err = f.conflicts.FindAlternativeDates(ctx, ev, "lead-mira", nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(0), day(2), day(3)}, dates)
}

func TestGetCapacityStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	seedCommitted(f, "s-1", 450001, "lead-liam", 4, 10)
	seedCommitted(f, "s-2", 450002, "lead-mira", 4, 10)

	status, err := f.conflicts.GetCapacityStatus(ctx, day(4))
	require.NoError(t, err)
	assert.Equal(t, 2, status.ScheduledCount)
	assert.Equal(t, 5, status.TotalEmployees)
	assert.InDelta(t, 0.4, status.CapacityUsed, 1e-9)
	assert.False(t, status.Overbooked)
}
