package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/mocks"
)

// placementsByRef indexes a run's pending assignments by event ref.
func placementsByRef(t *testing.T, f *fixture, runID string) map[int]*model.PendingAssignment {
	t.Helper()
	rows, err := f.store.Pendings.ListByRun(context.Background(), runID)
	require.NoError(t, err)
	out := make(map[int]*model.PendingAssignment, len(rows))
	for _, pa := range rows {
		out[pa.EventRef] = pa
	}
	return out
}

func TestRunAutoSchedulerPlacesCoreEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	f.store.Events.Seed(coreEvent(450001, "Core Demo Alpha", 0, 10))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.TotalProcessed)
	assert.Equal(t, 1, run.Scheduled)
	assert.Equal(t, 0, run.Failed)
	require.NotNil(t, run.CompletedAt)

	pa := placementsByRef(t, f, run.ID)[450001]
	require.NotNil(t, pa)
	require.True(t, pa.Placed())
	// First date past the short-notice window, first slot, leads first.
	assert.Equal(t, "lead-liam", *pa.EmployeeID)
	assert.Equal(t, at(4, 10, 15), *pa.ScheduleDatetime)
}

func TestRunAutoSchedulerSpreadsCoreAcrossEmployees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	f.store.Events.Seed(
		coreEvent(450001, "Core Demo Alpha", 0, 10),
		coreEvent(450002, "Core Demo Beta", 0, 10),
	)

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Scheduled)

	byRef := placementsByRef(t, f, run.ID)
	first, second := byRef[450001], byRef[450002]
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.True(t, first.Placed())
	require.True(t, second.Placed())

	// One core per employee per day forces the second event to the next
	// candidate in the pool; the slot cursor advances per placement.
	assert.Equal(t, "lead-liam", *first.EmployeeID)
	assert.Equal(t, "lead-mira", *second.EmployeeID)
	assert.Equal(t, model.DateOf(*first.ScheduleDatetime), model.DateOf(*second.ScheduleDatetime))
}

func TestRunAutoSchedulerJuicerBumpsCommittedCore(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockBumpNotifier(ctrl)

	f := newFixture(t, notifier)
	f.seedStandardRoster()

	// Thursday 2026-03-05 is the earliest schedulable juicer date with the
	// three-day window. Jess holds the juicer rotation that weekday.
	_, err := f.store.Rotations.Upsert(ctx, &model.SetRotationRequest{
		DayOfWeek:         3,
		RotationType:      model.RotationTypeJuicer,
		PrimaryEmployeeID: "jb-jess",
	})
	require.NoError(t, err)

	// Jess already has a committed core demo that Thursday.
	committedCore := coreEvent(450010, "Core Demo Held", 0, 10)
	committedCore.IsScheduled = true
	f.store.Events.Seed(committedCore)
	f.store.Schedules.Seed(&model.Schedule{
		ID:               "sched-1",
		EventRef:         450010,
		EmployeeID:       "jb-jess",
		ScheduleDatetime: at(3, 10, 15),
	})

	f.store.Events.Seed(typedEvent(900100, "Juicer Production", model.EventTypeJuicerProduction, 0, 5, 120))

	var notified core.BumpNotification
	notifier.EXPECT().
		ScheduleBumped(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n core.BumpNotification) error {
			notified = n
			return nil
		})

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)

	byRef := placementsByRef(t, f, run.ID)

	// The juicer event owns the bar on Thursday morning.
	juicer := byRef[900100]
	require.NotNil(t, juicer)
	require.True(t, juicer.Placed())
	assert.Equal(t, "jb-jess", *juicer.EmployeeID)
	assert.Equal(t, at(3, 9, 0), *juicer.ScheduleDatetime)

	// The committed schedule is gone and the bump was announced.
	sched, err := f.store.Schedules.GetByEventRef(ctx, 450010)
	require.NoError(t, err)
	assert.Nil(t, sched)
	require.NotNil(t, notified.Schedule)
	assert.Equal(t, 450010, notified.Schedule.EventRef)
	assert.Equal(t, 900100, notified.BumpedBy.ProjectRef)

	// The displaced core went back through the queue and landed elsewhere.
	rescheduled := byRef[450010]
	require.NotNil(t, rescheduled)
	require.True(t, rescheduled.Placed())
	assert.NotEqual(t, "jb-jess", *rescheduled.EmployeeID)

	ev, err := f.store.Events.GetByRef(ctx, 450010)
	require.NoError(t, err)
	assert.False(t, ev.IsScheduled, "bumped events return to the backlog until approval")
}

func TestRunAutoSchedulerShortNoticeCoreFailsWithoutBumpTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	// Due in three days: every candidate date sits inside the short-notice
	// window, and there is nothing on the calendar to bump.
	f.store.Events.Seed(coreEvent(450020, "Core Demo Urgent", 0, 3))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 0, run.Scheduled)
	assert.Equal(t, 1, run.Failed)

	pa := placementsByRef(t, f, run.ID)[450020]
	require.NotNil(t, pa)
	require.True(t, pa.Failed())
	// The rescue pass gets the final word on urgent core failures.
	assert.Contains(t, *pa.FailureReason, "rescue pass")
}

func TestRunAutoSchedulerShortNoticeCoreBumpsAndForwardMoves(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	// Forward-moves update the committed schedule in place; nothing leaves the
	// calendar, so the notifier must stay silent.
	notifier := mocks.NewMockBumpNotifier(ctrl)

	f := newFixture(t, notifier)
	f.seedStandardRoster()

	// Mira holds a committed core on Thursday with plenty of runway.
	held := coreEvent(450040, "Core Demo Held", 0, 10)
	held.IsScheduled = true
	f.store.Events.Seed(held)
	f.store.Schedules.Seed(&model.Schedule{
		ID:               "sched-held",
		EventRef:         450040,
		EmployeeID:       "lead-mira",
		ScheduleDatetime: at(3, 10, 15),
	})

	// Due Friday: every candidate date is short notice, so the open-slot path
	// is skipped and displacing a less urgent core is the only way in.
	f.store.Events.Seed(coreEvent(450041, "Core Demo Urgent", 0, 4))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Scheduled)
	assert.Equal(t, 0, run.Failed)
	assert.Equal(t, 1, run.RequiringSwaps)

	// The urgent core takes the displaced slot and employee.
	pa := placementsByRef(t, f, run.ID)[450041]
	require.NotNil(t, pa)
	require.True(t, pa.Placed())
	assert.Equal(t, "lead-mira", *pa.EmployeeID)
	assert.Equal(t, at(3, 10, 15), *pa.ScheduleDatetime)
	assert.True(t, pa.IsSwap)
	require.NotNil(t, pa.BumpedEventRef)
	assert.Equal(t, 450040, *pa.BumpedEventRef)

	// The displaced core moved to the earliest open date in its window, keeping
	// its employee and time of day. Tomorrow is the floor; today is never used.
	sched, err := f.store.Schedules.GetByEventRef(ctx, 450040)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, "sched-held", sched.ID)
	assert.Equal(t, "lead-mira", sched.EmployeeID)
	assert.Equal(t, at(1, 10, 15), sched.ScheduleDatetime)
}

func TestRunAutoSchedulerBumpRequeuesWhenNoEarlierDateExists(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockBumpNotifier(ctrl)

	f := newFixture(t, notifier)
	f.seedStandardRoster()

	// Mira's committed core sits on tomorrow, the earliest date any placement
	// may use, so a forward-move has nowhere to go.
	held := coreEvent(450040, "Core Demo Held", 0, 10)
	held.IsScheduled = true
	f.store.Events.Seed(held)
	f.store.Schedules.Seed(&model.Schedule{
		ID:               "sched-held",
		EventRef:         450040,
		EmployeeID:       "lead-mira",
		ScheduleDatetime: at(1, 10, 15),
	})

	f.store.Events.Seed(coreEvent(450041, "Core Demo Urgent", 1, 3))

	var notified core.BumpNotification
	notifier.EXPECT().
		ScheduleBumped(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n core.BumpNotification) error {
			notified = n
			return nil
		})

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Scheduled)
	assert.Equal(t, 0, run.Failed)

	byRef := placementsByRef(t, f, run.ID)

	// The urgent core takes the displaced slot and employee.
	urgent := byRef[450041]
	require.NotNil(t, urgent)
	require.True(t, urgent.Placed())
	assert.Equal(t, "lead-mira", *urgent.EmployeeID)
	assert.Equal(t, at(1, 10, 15), *urgent.ScheduleDatetime)

	// The held core left the committed calendar, the bump was announced, and
	// the event went back through the queue to land on a later open slot.
	sched, err := f.store.Schedules.GetByEventRef(ctx, 450040)
	require.NoError(t, err)
	assert.Nil(t, sched)
	require.NotNil(t, notified.Schedule)
	assert.Equal(t, 450040, notified.Schedule.EventRef)
	assert.Equal(t, 450041, notified.BumpedBy.ProjectRef)

	requeued := byRef[450040]
	require.NotNil(t, requeued)
	require.True(t, requeued.Placed())
	assert.Equal(t, at(4, 10, 15), *requeued.ScheduleDatetime)

	ev, err := f.store.Events.GetByRef(ctx, 450040)
	require.NoError(t, err)
	assert.False(t, ev.IsScheduled)
}

func TestRunAutoSchedulerBumpSkipsTargetsNearTheirDueDate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MinDaysToDue = 5

	f := newFixtureWithConfig(t, nil, cfg)
	f.seedStandardRoster()

	// Held core has four days of runway, under the required headroom, so it is
	// never a bump target even for a more urgent event.
	held := coreEvent(450070, "Core Demo Held", 0, 4)
	held.IsScheduled = true
	f.store.Events.Seed(held)
	f.store.Schedules.Seed(&model.Schedule{
		ID:               "sched-held",
		EventRef:         450070,
		EmployeeID:       "lead-mira",
		ScheduleDatetime: at(1, 10, 15),
	})

	f.store.Events.Seed(coreEvent(450071, "Core Demo Urgent", 0, 3))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 0, run.Scheduled)
	assert.Equal(t, 1, run.Failed)

	pa := placementsByRef(t, f, run.ID)[450071]
	require.NotNil(t, pa)
	require.True(t, pa.Failed())
	assert.Contains(t, *pa.FailureReason, "rescue pass")

	sched, err := f.store.Schedules.GetByEventRef(ctx, 450070)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, at(1, 10, 15), sched.ScheduleDatetime)
	assert.Equal(t, "lead-mira", sched.EmployeeID)
}

func TestRunAutoSchedulerBumpCapProtectsRepeatVictims(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxBumpsPerEvent = 1

	f := newFixtureWithConfig(t, nil, cfg)
	f.seedStandardRoster()

	// Starts Tuesday, so a forward-move can only reach Tuesday or Wednesday.
	held := coreEvent(450060, "Core Demo Held", 1, 10)
	held.IsScheduled = true
	f.store.Events.Seed(held)
	f.store.Schedules.Seed(&model.Schedule{
		ID:               "sched-held",
		EventRef:         450060,
		EmployeeID:       "lead-mira",
		ScheduleDatetime: at(3, 10, 15),
	})

	f.store.Events.Seed(
		coreEvent(450061, "Core Demo Urgent A", 0, 4),
		coreEvent(450062, "Core Demo Urgent B", 0, 4),
	)

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Scheduled)
	assert.Equal(t, 1, run.Failed)

	byRef := placementsByRef(t, f, run.ID)

	// The first urgent core spends the held event's only allowed bump.
	first := byRef[450061]
	require.NotNil(t, first)
	require.True(t, first.Placed())
	assert.Equal(t, "lead-mira", *first.EmployeeID)
	assert.Equal(t, at(3, 10, 15), *first.ScheduleDatetime)

	// The held event sits forward-moved on Tuesday and may not be displaced
	// again, so the second urgent core runs out of targets.
	sched, err := f.store.Schedules.GetByEventRef(ctx, 450060)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, at(1, 10, 15), sched.ScheduleDatetime)

	second := byRef[450062]
	require.NotNil(t, second)
	require.True(t, second.Failed())
	assert.Contains(t, *second.FailureReason, "rescue pass")
}

func TestRunAutoSchedulerPairsSupervisorCheckpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	f.store.Events.Seed(
		coreEvent(910001, "Core Demo 450002", 0, 10),
		typedEvent(910002, "Supervisor Checkpoint 450002", model.EventTypeSupervisor, 0, 10, 5),
	)

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Scheduled)
	assert.Equal(t, 0, run.Failed)

	byRef := placementsByRef(t, f, run.ID)
	corePA, supPA := byRef[910001], byRef[910002]
	require.NotNil(t, corePA)
	require.NotNil(t, supPA)
	require.True(t, corePA.Placed())
	require.True(t, supPA.Placed())

	// Checkpoint lands at noon of the core's date, on the club supervisor.
	coreDate := model.DateOf(*corePA.ScheduleDatetime)
	assert.Equal(t, model.AtTime(coreDate, 12, 0), *supPA.ScheduleDatetime)
	assert.Equal(t, "sup-dana", *supPA.EmployeeID)
}

func TestRunAutoSchedulerSupervisorWithoutCoreFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	f.store.Events.Seed(typedEvent(910002, "Supervisor Checkpoint 450002", model.EventTypeSupervisor, 0, 10, 5))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)

	pa := placementsByRef(t, f, run.ID)[910002]
	require.NotNil(t, pa)
	require.True(t, pa.Failed())
	assert.Contains(t, *pa.FailureReason, "450002")
}

func TestRunAutoSchedulerFreeoskGoesToPrimaryLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	// Wednesday 2026-03-04, weekday index 2.
	_, err := f.store.Rotations.Upsert(ctx, &model.SetRotationRequest{
		DayOfWeek:         2,
		RotationType:      model.RotationTypePrimaryLead,
		PrimaryEmployeeID: "lead-mira",
	})
	require.NoError(t, err)

	f.store.Events.Seed(typedEvent(920001, "Freeosk Sampling", model.EventTypeFreeosk, 2, 10, 30))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)

	pa := placementsByRef(t, f, run.ID)[920001]
	require.NotNil(t, pa)
	require.True(t, pa.Placed())
	assert.Equal(t, "lead-mira", *pa.EmployeeID)
	assert.Equal(t, at(2, 10, 0), *pa.ScheduleDatetime)
}

func TestRunAutoSchedulerHolidayBlocksPlacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	_, err := f.store.Holidays.Create(ctx, day(2), "Founders Day")
	require.NoError(t, err)

	// Freeosk events cannot roam off their start date.
	f.store.Events.Seed(typedEvent(920002, "Freeosk Sampling", model.EventTypeFreeosk, 2, 10, 30))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)

	pa := placementsByRef(t, f, run.ID)[920002]
	require.NotNil(t, pa)
	require.True(t, pa.Failed())
	assert.Contains(t, *pa.FailureReason, "Company Holiday")
}

func TestRunAutoSchedulerDigitalSetupUsesMorningSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	_, err := f.store.Rotations.Upsert(ctx, &model.SetRotationRequest{
		DayOfWeek:         2,
		RotationType:      model.RotationTypePrimaryLead,
		PrimaryEmployeeID: "lead-liam",
	})
	require.NoError(t, err)

	f.store.Events.Seed(
		typedEvent(930001, "Digital Setup 450005", model.EventTypeDigitals, 2, 10, 15),
		typedEvent(930002, "Digital Setup 450006", model.EventTypeDigitals, 2, 10, 15),
	)

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Scheduled)

	byRef := placementsByRef(t, f, run.ID)
	first, second := byRef[930001], byRef[930002]
	require.True(t, first.Placed())
	require.True(t, second.Placed())
	assert.Equal(t, at(2, 10, 15), *first.ScheduleDatetime)
	assert.Equal(t, at(2, 10, 30), *second.ScheduleDatetime, "setup slots rotate per placement")
}

func TestRunAutoSchedulerIsDeterministic(t *testing.T) {
	ctx := context.Background()

	build := func() *fixture {
		f := newFixture(t, nil)
		f.seedStandardRoster()
		require.NoError(t, f.store.Rotations.ReplaceAll(ctx, []*model.SetRotationRequest{
			{DayOfWeek: 3, RotationType: model.RotationTypeJuicer, PrimaryEmployeeID: "jb-jess"},
			{DayOfWeek: 2, RotationType: model.RotationTypePrimaryLead, PrimaryEmployeeID: "lead-liam"},
		}))
		f.store.Events.Seed(
			coreEvent(910001, "Core Demo 450002", 0, 10),
			coreEvent(450001, "Core Demo Alpha", 0, 9),
			typedEvent(910002, "Supervisor Checkpoint 450002", model.EventTypeSupervisor, 0, 10, 5),
			typedEvent(900100, "Juicer Production", model.EventTypeJuicerProduction, 0, 6, 120),
			typedEvent(920001, "Freeosk Sampling", model.EventTypeFreeosk, 2, 10, 30),
		)
		return f
	}

	type placement struct {
		employee string
		at       time.Time
		failed   bool
	}
	runOnce := func() map[int]placement {
		f := build()
		run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
		require.NoError(t, err)
		out := map[int]placement{}
		for ref, pa := range placementsByRef(t, f, run.ID) {
			p := placement{failed: pa.Failed()}
			if pa.Placed() {
				p.employee = *pa.EmployeeID
				p.at = *pa.ScheduleDatetime
			}
			out[ref] = p
		}
		return out
	}

	first := runOnce()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, runOnce(), fmt.Sprintf("repeat %d diverged", i+1))
	}
}

func TestRunAutoSchedulerRespectsEventWindows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()
	f.store.Events.Seed(
		coreEvent(450001, "Core Demo Alpha", 0, 10),
		typedEvent(900100, "Juicer Production", model.EventTypeJuicerProduction, 0, 8, 120),
		typedEvent(920001, "Freeosk Sampling", model.EventTypeFreeosk, 2, 10, 30),
	)
	require.NoError(t, f.store.Rotations.ReplaceAll(ctx, []*model.SetRotationRequest{
		{DayOfWeek: 3, RotationType: model.RotationTypeJuicer, PrimaryEmployeeID: "jb-jess"},
		{DayOfWeek: 2, RotationType: model.RotationTypePrimaryLead, PrimaryEmployeeID: "lead-liam"},
	}))

	run, err := f.engine.RunAutoScheduler(ctx, model.RunTypeManual)
	require.NoError(t, err)

	rows, err := f.store.Pendings.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	for _, pa := range rows {
		if !pa.Placed() {
			continue
		}
		ev, err := f.store.Events.GetByRef(ctx, pa.EventRef)
		require.NoError(t, err)
		assert.True(t, ev.WithinWindow(*pa.ScheduleDatetime),
			"event %d placed at %s outside [%s, %s)", pa.EventRef, pa.ScheduleDatetime, ev.StartDatetime, ev.DueDatetime)
	}
}

func TestScheduleSingleEventSuggestsCoreSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seedStandardRoster()

	ev := coreEvent(450030, "Core Demo Single", 4, 12)
	suggestion, err := f.engine.ScheduleSingleEvent(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "lead-liam", suggestion.Employee.ID)
	assert.Equal(t, at(4, 10, 15), suggestion.ScheduleDatetime)
}

func TestScheduleSingleEventNoCandidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	// Roster holds only a supervisor; core pool is empty.
	f.store.Employees.Seed(&model.Employee{
		ID: "sup-dana", Name: "Dana", JobTitle: model.JobTitleClubSupervisor, Active: true,
	})

	suggestion, err := f.engine.ScheduleSingleEvent(ctx, coreEvent(450031, "Core Demo Single", 4, 12))
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}
