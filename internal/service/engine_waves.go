package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// Wave 1: juicer events. The rotation juicer owns the bar; Core work on their
// plate gives way when the only blockers are bumpable.
func (s *SchedulingEngineService) scheduleJuicerEvents(
	ctx context.Context,
	st *runState,
	events []*model.Event,
) error {
	for _, ev := range events {
		st.markProcessed(ev.ProjectRef)
		placed, lastReason, err := s.placeJuicerEvent(ctx, st, ev)
		if err != nil {
			return err
		}
		if !placed {
			if err := s.writeFailure(ctx, st, ev, lastReason); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SchedulingEngineService) placeJuicerEvent(
	ctx context.Context,
	st *runState,
	ev *model.Event,
) (bool, string, error) {
	var lastReason string
	due := s.dueDate(ev)
	for date := s.earliestSchedulable(ev); date.Before(due); date = date.AddDate(0, 0, 1) {
		var tried string
		for _, tryBackup := range []bool{false, true} {
			emp, err := s.rotations.GetRotationEmployee(ctx, date, model.RotationTypeJuicer, tryBackup)
			if err != nil {
				return false, "", err
			}
			if emp == nil || emp.ID == tried {
				continue
			}
			tried = emp.ID

			at := s.cfg.JuicerTimeFor(ev.Type).On(date)
			res, err := s.validator.Validate(ctx, ValidateParams{
				Event:            ev,
				Employee:         emp,
				ScheduleDatetime: at,
			})
			if err != nil {
				return false, "", err
			}

			switch {
			case res.IsValid:
			case res.OnlyBumpableViolations():
				if err := s.bumpCoreForEmployee(ctx, st, emp.ID, date, ev); err != nil {
					return false, "", err
				}
			default:
				lastReason = res.FailureMessage()
				continue
			}

			pa, err := s.writePending(ctx, st, ev, emp.ID, at, pendingWrite{})
			if err != nil {
				return false, "", err
			}
			if pa != nil {
				return true, "", nil
			}
			lastReason = "schedule datetime outside event window"
		}
	}
	if lastReason == "" {
		lastReason = "no rotation juicer available before the due date"
	}
	return false, lastReason, nil
}

// bumpCoreForEmployee clears every Core item the employee holds on the date,
// from the current run's proposals and from committed schedules, leaving the
// bumped events unscheduled for the Core wave to pick up.
func (s *SchedulingEngineService) bumpCoreForEmployee(
	ctx context.Context,
	st *runState,
	employeeID string,
	date time.Time,
	bumpedBy *model.Event,
) error {
	items, err := s.coreItemsOnDate(ctx, st, date)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.EmployeeID != employeeID {
			continue
		}
		reason := fmt.Sprintf("bumped by %s event %d", bumpedBy.Type, bumpedBy.ProjectRef)
		if err := s.removeScheduledItem(ctx, st, it, bumpedBy, reason); err != nil {
			return err
		}
		st.bumpCounts[it.EventRef]++
		s.requeueCore(st, it.Event)
	}
	return nil
}

// Wave 2: Core events, day by day through a mutable queue. Normal-window days
// fill empty slots first; short-notice days go straight to bumping.
func (s *SchedulingEngineService) scheduleCoreEvents(ctx context.Context, st *runState) error {
	sort.SliceStable(st.coreQueue, func(i, j int) bool {
		if !st.coreQueue[i].DueDatetime.Equal(st.coreQueue[j].DueDatetime) {
			return st.coreQueue[i].DueDatetime.Before(st.coreQueue[j].DueDatetime)
		}
		return st.coreQueue[i].ProjectRef < st.coreQueue[j].ProjectRef
	})

	for len(st.coreQueue) > 0 {
		ev := st.coreQueue[0]
		st.coreQueue = st.coreQueue[1:]
		st.markProcessed(ev.ProjectRef)

		placed, lastReason, err := s.placeCoreEvent(ctx, st, ev)
		if err != nil {
			return err
		}
		if !placed {
			if err := s.writeFailure(ctx, st, ev, lastReason); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SchedulingEngineService) placeCoreEvent(
	ctx context.Context,
	st *runState,
	ev *model.Event,
) (bool, string, error) {
	start := model.DateOf(ev.StartDatetime.In(s.cfg.Location))
	if tomorrow := s.timeProvider.Today().AddDate(0, 0, 1); start.Before(tomorrow) {
		start = tomorrow
	}
	due := s.dueDate(ev)

	var lastReason string
	for date := start; date.Before(due); date = date.AddDate(0, 0, 1) {
		shortNotice := s.daysFromToday(date) <= s.cfg.SchedulingWindowDays
		if !shortNotice {
			placed, reason, err := s.tryFillEmptyCoreSlot(ctx, st, ev, date)
			if err != nil {
				return false, "", err
			}
			if placed {
				return true, "", nil
			}
			if reason != "" {
				lastReason = reason
			}
		}

		placed, err := s.tryBumpCore(ctx, st, ev, date)
		if err != nil {
			return false, "", err
		}
		if placed {
			return true, "", nil
		}
		if shortNotice && lastReason == "" {
			lastReason = "short-notice window: no bumpable core event found"
		}
	}
	if lastReason == "" {
		lastReason = "no open slot or bumpable core event before the due date"
	}
	return false, lastReason, nil
}

// tryFillEmptyCoreSlot attempts the round-robin slot for the date against the
// rule-ordered employee pool.
func (s *SchedulingEngineService) tryFillEmptyCoreSlot(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	date time.Time,
) (bool, string, error) {
	if err := s.ensureCoreSlotIdx(ctx, st, date); err != nil {
		return false, "", err
	}
	pool, err := s.buildCorePool(ctx, ev, date)
	if err != nil {
		return false, "", err
	}
	if len(pool) == 0 {
		return false, "no core-eligible employees on " + dateKey(date), nil
	}

	key := dateKey(date)
	slots := s.cfg.CoreSlotsFor(date)
	at := slots[st.coreSlotIdx[key]%len(slots)].On(date)

	var lastReason string
	for _, emp := range pool {
		res, err := s.validator.Validate(ctx, ValidateParams{
			Event:            ev,
			Employee:         emp,
			ScheduleDatetime: at,
		})
		if err != nil {
			return false, "", err
		}
		if !res.IsValid {
			lastReason = res.FailureMessage()
			continue
		}
		pa, err := s.writePending(ctx, st, ev, emp.ID, at, pendingWrite{})
		if err != nil {
			return false, "", err
		}
		if pa == nil {
			return false, "schedule datetime outside event window", nil
		}
		st.coreSlotIdx[key]++
		if err := s.pairSupervisorInline(ctx, st, ev, date); err != nil {
			return false, "", err
		}
		return true, "", nil
	}
	return false, lastReason, nil
}

// ensureCoreSlotIdx seeds the per-date slot cursor from the count of Core
// events already committed on the date, so new placements continue the
// round-robin rather than restarting it.
func (s *SchedulingEngineService) ensureCoreSlotIdx(ctx context.Context, st *runState, date time.Time) error {
	key := dateKey(date)
	if _, ok := st.coreSlotIdx[key]; ok {
		return nil
	}
	items, err := s.schedules.ItemsOnDate(ctx, date)
	if err != nil {
		return err
	}
	count := 0
	for _, it := range items {
		if it.Event != nil && it.Event.Type == model.EventTypeCore {
			count++
		}
	}
	st.coreSlotIdx[key] = count
	return nil
}

// buildCorePool orders candidates for a Core slot: leads, then specialists,
// then juicer baristas who have no juicer event that day. The optional ranker
// may reorder the pool.
func (s *SchedulingEngineService) buildCorePool(
	ctx context.Context,
	ev *model.Event,
	date time.Time,
) ([]*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	var leads, specialists, juicers []*model.Employee
	for _, emp := range roster {
		switch emp.JobTitle {
		case model.JobTitleLeadEventSpecialist:
			leads = append(leads, emp)
		case model.JobTitleEventSpecialist:
			specialists = append(specialists, emp)
		case model.JobTitleJuicerBarista:
			busy, err := s.hasJuicerEventOn(ctx, emp.ID, date)
			if err != nil {
				return nil, err
			}
			if !busy {
				juicers = append(juicers, emp)
			}
		}
	}
	pool := append(append(leads, specialists...), juicers...)

	if s.ranker != nil {
		ranked, err := s.ranker.Rank(ctx, core.RankParams{Event: ev, Date: date, Candidates: pool})
		if err != nil {
			s.logger.Warn("employee ranker failed, keeping rule order",
				"event_ref", ev.ProjectRef, "error", err)
			return pool, nil
		}
		return ranked, nil
	}
	return pool, nil
}

func (s *SchedulingEngineService) hasJuicerEventOn(
	ctx context.Context,
	employeeID string,
	date time.Time,
) (bool, error) {
	day := model.DateOf(date.In(s.cfg.Location))
	next := day.AddDate(0, 0, 1)

	committed, err := s.schedules.ItemsForEmployeeBetween(ctx, employeeID, day, next)
	if err != nil {
		return false, err
	}
	pending, err := s.pendings.ItemsForEmployeeBetween(ctx, core.PendingItemsParams{
		RunIDs:     []string{s.validator.CurrentRun()},
		EmployeeID: employeeID,
		Start:      day,
		End:        next,
	})
	if err != nil {
		return false, err
	}
	for _, it := range append(committed, pending...) {
		if it.Event != nil && it.Event.Type.IsJuicer() {
			return true, nil
		}
	}
	return false, nil
}

// coreItemsOnDate gathers Core items on the date from committed schedules and
// the current run's proposals.
func (s *SchedulingEngineService) coreItemsOnDate(
	ctx context.Context,
	st *runState,
	date time.Time,
) ([]*model.ScheduledItem, error) {
	committed, err := s.schedules.ItemsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	pending, err := s.pendings.ItemsOnDate(ctx, []string{st.run.ID}, date)
	if err != nil {
		return nil, err
	}

	var out []*model.ScheduledItem
	for _, it := range append(committed, pending...) {
		if it.Event != nil && it.Event.Type == model.EventTypeCore {
			out = append(out, it)
		}
	}
	return out, nil
}

// tryBumpCore displaces a less urgent Core on the date and takes its slot and
// employee. Swap legality comes from the conflict resolver: the target must be
// strictly less urgent and retain MinDaysToDue headroom. The displaced event
// is forward-moved when possible, otherwise requeued.
func (s *SchedulingEngineService) tryBumpCore(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	date time.Time,
) (bool, error) {
	items, err := s.coreItemsOnDate(ctx, st, date)
	if err != nil {
		return false, err
	}

	var cands []*model.ScheduledItem
	for _, it := range items {
		if it.EventRef == ev.ProjectRef {
			continue
		}
		if !s.conflicts.ValidateSwap(ev, it.Event) {
			continue
		}
		if st.bumpCounts[it.EventRef] >= s.cfg.MaxBumpsPerEvent {
			continue
		}
		cands = append(cands, it)
	}
	// Latest due date first; earlier schedule time breaks ties.
	sort.SliceStable(cands, func(i, j int) bool {
		if !cands[i].Event.DueDatetime.Equal(cands[j].Event.DueDatetime) {
			return cands[i].Event.DueDatetime.After(cands[j].Event.DueDatetime)
		}
		return cands[i].ScheduleDatetime.Before(cands[j].ScheduleDatetime)
	})

	for _, cand := range cands {
		emp, err := s.employeeByID(ctx, cand.EmployeeID)
		if err != nil {
			return false, err
		}
		if emp == nil {
			continue
		}
		res, err := s.validator.Validate(ctx, ValidateParams{
			Event:              ev,
			Employee:           emp,
			ScheduleDatetime:   cand.ScheduleDatetime,
			ExcludeScheduleIDs: []string{cand.ID},
		})
		if err != nil {
			return false, err
		}
		if !res.IsValid {
			continue
		}

		reason := fmt.Sprintf("bumped by core event %d due %s",
			ev.ProjectRef, s.dueDate(ev).Format(time.DateOnly))
		moved, err := s.tryForwardMove(ctx, st, cand)
		if err != nil {
			return false, err
		}
		if !moved {
			if err := s.removeScheduledItem(ctx, st, cand, ev, reason); err != nil {
				return false, err
			}
			s.requeueCore(st, cand.Event)
		}
		st.bumpCounts[cand.EventRef]++

		bumpedRef := cand.EventRef
		pa, err := s.writePending(ctx, st, ev, cand.EmployeeID, cand.ScheduleDatetime, pendingWrite{
			IsSwap:         true,
			BumpedEventRef: &bumpedRef,
			SwapReason:     &reason,
		})
		if err != nil {
			return false, err
		}
		if pa == nil {
			return false, nil
		}
		if err := s.pairSupervisorInline(ctx, st, ev, date); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// tryForwardMove relocates the displaced item to an earlier date within its
// own window, keeping the employee and time of day. Candidate dates start at
// tomorrow, the same floor Core placement uses. Juicer baristas skip days
// already holding one of their juicer events.
func (s *SchedulingEngineService) tryForwardMove(
	ctx context.Context,
	st *runState,
	cand *model.ScheduledItem,
) (bool, error) {
	bumped := cand.Event
	emp, err := s.employeeByID(ctx, cand.EmployeeID)
	if err != nil || emp == nil {
		return false, err
	}

	local := cand.ScheduleDatetime.In(s.cfg.Location)
	slot := core.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
	current := model.DateOf(local)

	start := model.DateOf(bumped.StartDatetime.In(s.cfg.Location))
	if tomorrow := s.timeProvider.Today().AddDate(0, 0, 1); start.Before(tomorrow) {
		start = tomorrow
	}

	for date := start; date.Before(current); date = date.AddDate(0, 0, 1) {
		if emp.JobTitle == model.JobTitleJuicerBarista {
			busy, err := s.hasJuicerEventOn(ctx, emp.ID, date)
			if err != nil {
				return false, err
			}
			if busy {
				continue
			}
		}
		at := slot.On(date)
		res, err := s.validator.Validate(ctx, ValidateParams{
			Event:              bumped,
			Employee:           emp,
			ScheduleDatetime:   at,
			ExcludeScheduleIDs: []string{cand.ID},
		})
		if err != nil {
			return false, err
		}
		if !res.IsValid {
			continue
		}

		if cand.Source == model.ScheduleSourceCommitted {
			if err := s.schedules.UpdateDatetime(ctx, cand.ID, at); err != nil {
				return false, err
			}
		} else {
			if err := s.pendings.UpdatePlacement(ctx, cand.ID, cand.EmployeeID, at); err != nil {
				return false, err
			}
		}
		if err := s.movePairedSupervisor(ctx, st, bumped, date); err != nil {
			return false, err
		}
		if num, ok := bumped.EventNumber(); ok {
			st.placedCoreDates[num] = date
		}
		s.logger.Debug("forward-moved bumped event",
			"run_id", st.run.ID, "event_ref", bumped.ProjectRef, "to", date)
		return true, nil
	}
	return false, nil
}

// removeScheduledItem deletes a placed item and drags any paired supervisor
// checkpoint out with it. Committed deletions clear is_scheduled and fire the
// bump notifier so downstream republication can happen.
func (s *SchedulingEngineService) removeScheduledItem(
	ctx context.Context,
	st *runState,
	it *model.ScheduledItem,
	bumpedBy *model.Event,
	reason string,
) error {
	if it.Source == model.ScheduleSourcePending {
		if _, err := s.pendings.Delete(ctx, it.ID); err != nil {
			return err
		}
		st.run.Scheduled--
	} else {
		if _, err := s.schedules.Delete(ctx, it.ID); err != nil {
			return err
		}
		if err := s.events.SetScheduled(ctx, it.EventRef, false); err != nil {
			return err
		}
		if err := s.notifier.ScheduleBumped(ctx, core.BumpNotification{
			Schedule: &model.Schedule{
				ID:               it.ID,
				EventRef:         it.EventRef,
				EmployeeID:       it.EmployeeID,
				ScheduleDatetime: it.ScheduleDatetime,
			},
			BumpedBy: bumpedBy,
			Reason:   reason,
		}); err != nil {
			s.logger.Warn("bump notification failed",
				"run_id", st.run.ID, "event_ref", it.EventRef, "error", err)
		}
	}

	if it.Event != nil && it.Event.Type == model.EventTypeCore {
		if err := s.removePairedSupervisor(ctx, st, it.Event); err != nil {
			return err
		}
	}
	s.logger.Debug("assignment removed",
		"run_id", st.run.ID,
		"event_ref", it.EventRef,
		"source", string(it.Source),
		"reason", reason)
	return nil
}

// removePairedSupervisor undoes the checkpoint tied to a bumped Core event so
// the supervisor can be re-paired once the Core lands somewhere else.
func (s *SchedulingEngineService) removePairedSupervisor(
	ctx context.Context,
	st *runState,
	coreEv *model.Event,
) error {
	num, ok := coreEv.EventNumber()
	if !ok {
		return nil
	}
	delete(st.placedCoreDates, num)

	if placement, ok := st.placedSupervisors[num]; ok {
		pa, err := s.pendings.GetByID(ctx, placement.pendingID)
		if err == nil && pa != nil {
			if _, err := s.pendings.Delete(ctx, placement.pendingID); err != nil {
				return err
			}
			st.run.Scheduled--
			supEv, err := s.events.GetByRef(ctx, pa.EventRef)
			if err != nil {
				return err
			}
			st.supervisors = append(st.supervisors, supEv)
		}
		delete(st.placedSupervisors, num)
		return nil
	}

	supEv, err := s.events.FindScheduledEventByNumber(ctx, model.EventTypeSupervisor, num)
	if err != nil || supEv == nil {
		return err
	}
	sched, err := s.schedules.GetByEventRef(ctx, supEv.ProjectRef)
	if err != nil {
		return err
	}
	if sched == nil {
		return nil
	}
	if _, err := s.schedules.Delete(ctx, sched.ID); err != nil {
		return err
	}
	if err := s.events.SetScheduled(ctx, supEv.ProjectRef, false); err != nil {
		return err
	}
	st.supervisors = append(st.supervisors, supEv)
	return nil
}

// movePairedSupervisor follows a forward-moved Core with its checkpoint.
func (s *SchedulingEngineService) movePairedSupervisor(
	ctx context.Context,
	st *runState,
	coreEv *model.Event,
	newDate time.Time,
) error {
	num, ok := coreEv.EventNumber()
	if !ok {
		return nil
	}
	noon := s.cfg.SupervisorTime.On(newDate)

	if placement, ok := st.placedSupervisors[num]; ok {
		return s.pendings.UpdatePlacement(ctx, placement.pendingID, placement.employeeID, noon)
	}

	supEv, err := s.events.FindScheduledEventByNumber(ctx, model.EventTypeSupervisor, num)
	if err != nil || supEv == nil {
		return err
	}
	sched, err := s.schedules.GetByEventRef(ctx, supEv.ProjectRef)
	if err != nil || sched == nil {
		return err
	}
	return s.schedules.UpdateDatetime(ctx, sched.ID, noon)
}

// requeueCore reinserts a bumped event into the queue in due-date order.
func (s *SchedulingEngineService) requeueCore(st *runState, ev *model.Event) {
	if ev == nil {
		return
	}
	pos := sort.Search(len(st.coreQueue), func(i int) bool {
		if !st.coreQueue[i].DueDatetime.Equal(ev.DueDatetime) {
			return st.coreQueue[i].DueDatetime.After(ev.DueDatetime)
		}
		return st.coreQueue[i].ProjectRef > ev.ProjectRef
	})
	st.coreQueue = append(st.coreQueue, nil)
	copy(st.coreQueue[pos+1:], st.coreQueue[pos:])
	st.coreQueue[pos] = ev
}

// pairSupervisorInline places the checkpoint matching a just-scheduled Core
// event, if one is waiting.
func (s *SchedulingEngineService) pairSupervisorInline(
	ctx context.Context,
	st *runState,
	coreEv *model.Event,
	date time.Time,
) error {
	num, ok := coreEv.EventNumber()
	if !ok {
		return nil
	}
	for i, supEv := range st.supervisors {
		supNum, ok := supEv.EventNumber()
		if !ok || supNum != num {
			continue
		}
		st.supervisors = append(st.supervisors[:i], st.supervisors[i+1:]...)
		return s.scheduleSupervisorAt(ctx, st, supEv, num, date)
	}
	return nil
}

// scheduleSupervisorAt places a checkpoint at noon of the paired Core's date.
// Club supervisors are preferred, the primary lead is the fallback, and only
// day availability is required.
func (s *SchedulingEngineService) scheduleSupervisorAt(
	ctx context.Context,
	st *runState,
	supEv *model.Event,
	num string,
	date time.Time,
) error {
	st.markProcessed(supEv.ProjectRef)
	at := s.cfg.SupervisorTime.On(date)

	candidates, err := s.supervisorCandidates(ctx, date)
	if err != nil {
		return err
	}
	var lastReason string
	for _, emp := range candidates {
		res, err := s.validator.ValidateDayOnly(ctx, emp, date)
		if err != nil {
			return err
		}
		if !res.IsValid {
			lastReason = res.FailureMessage()
			continue
		}
		pa, err := s.writePending(ctx, st, supEv, emp.ID, at, pendingWrite{})
		if err != nil {
			return err
		}
		if pa == nil {
			return s.writeFailure(ctx, st, supEv, "schedule datetime outside event window")
		}
		st.placedSupervisors[num] = supervisorPlacement{pendingID: pa.ID, employeeID: emp.ID}
		return nil
	}
	if lastReason == "" {
		lastReason = "no club supervisor or primary lead available"
	}
	return s.writeFailure(ctx, st, supEv, lastReason)
}

// supervisorCandidates lists club supervisors in roster order, then the
// primary lead for the date.
func (s *SchedulingEngineService) supervisorCandidates(
	ctx context.Context,
	date time.Time,
) ([]*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Employee
	for _, emp := range roster {
		if emp.JobTitle == model.JobTitleClubSupervisor {
			out = append(out, emp)
		}
	}
	primary, err := s.rotations.GetRotationEmployee(ctx, date, model.RotationTypePrimaryLead, false)
	if err != nil {
		return nil, err
	}
	if primary != nil {
		out = append(out, primary)
	}
	return out, nil
}

// pairOrphanedSupervisors handles checkpoints whose Core landed in an earlier
// run or earlier in this one without pairing.
func (s *SchedulingEngineService) pairOrphanedSupervisors(ctx context.Context, st *runState) error {
	pending := st.supervisors
	st.supervisors = nil

	for _, supEv := range pending {
		st.markProcessed(supEv.ProjectRef)
		num, ok := supEv.EventNumber()
		if !ok {
			if err := s.writeFailure(ctx, st, supEv, "no 6-digit event number in name"); err != nil {
				return err
			}
			continue
		}

		date, found := st.placedCoreDates[num]
		if !found {
			coreEv, err := s.events.FindScheduledEventByNumber(ctx, model.EventTypeCore, num)
			if err != nil {
				return err
			}
			if coreEv != nil {
				sched, err := s.schedules.GetByEventRef(ctx, coreEv.ProjectRef)
				if err != nil {
					return err
				}
				if sched != nil {
					date = model.DateOf(sched.ScheduleDatetime.In(s.cfg.Location))
					found = true
				}
			}
		}
		if !found {
			if err := s.writeFailure(ctx, st, supEv,
				fmt.Sprintf("no scheduled core event pairs with number %s", num)); err != nil {
				return err
			}
			continue
		}
		if err := s.scheduleSupervisorAt(ctx, st, supEv, num, date); err != nil {
			return err
		}
	}
	return nil
}

// Wave 3: Freeosk events go to the primary lead at the configured morning
// time, on the event's start date.
func (s *SchedulingEngineService) scheduleFreeoskEvents(
	ctx context.Context,
	st *runState,
	events []*model.Event,
) error {
	for _, ev := range events {
		st.markProcessed(ev.ProjectRef)
		date := s.fixedWaveDate(ev)
		at := s.cfg.FreeoskTime.On(date)

		candidates, err := s.leadCandidates(ctx, date)
		if err != nil {
			return err
		}
		if err := s.placeWithDayCheck(ctx, st, ev, candidates, date, at); err != nil {
			return err
		}
	}
	return nil
}

// Wave 4: digital events. Setup and refresh rotate through the morning slot
// set with the primary lead; teardowns rotate the evening set with the
// secondary lead. Digitals cannot move: they land on the start date or fail.
func (s *SchedulingEngineService) scheduleDigitalEvents(
	ctx context.Context,
	st *runState,
	events []*model.Event,
) error {
	for _, ev := range events {
		st.markProcessed(ev.ProjectRef)
		date := s.fixedWaveDate(ev)
		key := dateKey(date)

		var (
			slots   []core.TimeOfDay
			idx     map[string]int
			primary *model.Employee
			err     error
		)
		if ev.DigitalSubtype() == model.DigitalSubtypeTeardown {
			slots, idx = s.cfg.DigitalTeardownSlots, st.teardownSlotIdx
			primary, err = s.rotations.GetSecondaryLead(ctx, date)
		} else {
			slots, idx = s.cfg.DigitalSetupSlots, st.setupSlotIdx
			primary, err = s.rotations.GetRotationEmployee(ctx, date, model.RotationTypePrimaryLead, false)
		}
		if err != nil {
			return err
		}
		at := slots[idx[key]%len(slots)].On(date)

		candidates, err := s.withSupervisorFallback(ctx, primary)
		if err != nil {
			return err
		}
		placed, err := s.placeWithDayCheckResult(ctx, st, ev, candidates, date, at)
		if err != nil {
			return err
		}
		if placed {
			idx[key]++
		}
	}
	return nil
}

// Wave 5: Other events at the configured midday time on the start date,
// supervisors first, then any lead.
func (s *SchedulingEngineService) scheduleOtherEvents(
	ctx context.Context,
	st *runState,
	events []*model.Event,
) error {
	for _, ev := range events {
		st.markProcessed(ev.ProjectRef)
		date := s.fixedWaveDate(ev)
		at := s.cfg.OtherTime.On(date)

		roster, err := s.roster.ActiveEmployees(ctx)
		if err != nil {
			return err
		}
		var supers, leads []*model.Employee
		for _, emp := range roster {
			switch emp.JobTitle {
			case model.JobTitleClubSupervisor:
				supers = append(supers, emp)
			case model.JobTitleLeadEventSpecialist:
				leads = append(leads, emp)
			}
		}
		if err := s.placeWithDayCheck(ctx, st, ev, append(supers, leads...), date, at); err != nil {
			return err
		}
	}
	return nil
}

// rescueFailedCores gives urgent failed Core events one more bump attempt
// against the fully populated assignment state.
func (s *SchedulingEngineService) rescueFailedCores(ctx context.Context, st *runState) error {
	now := s.timeProvider.Now()
	var urgent []failedCoreEntry
	for _, entry := range st.failedCore {
		if entry.event.DaysUntilDue(now, s.cfg.Location) <= 7 {
			urgent = append(urgent, entry)
		}
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		if !urgent[i].event.DueDatetime.Equal(urgent[j].event.DueDatetime) {
			return urgent[i].event.DueDatetime.Before(urgent[j].event.DueDatetime)
		}
		return urgent[i].event.ProjectRef < urgent[j].event.ProjectRef
	})

	for _, entry := range urgent {
		ev := entry.event
		if _, err := s.pendings.Delete(ctx, entry.pendingID); err != nil {
			return err
		}
		st.run.Failed--
		delete(st.failedCore, ev.ProjectRef)

		placed := false
		start := model.DateOf(ev.StartDatetime.In(s.cfg.Location))
		if tomorrow := s.timeProvider.Today().AddDate(0, 0, 1); start.Before(tomorrow) {
			start = tomorrow
		}
		for date := start; date.Before(s.dueDate(ev)) && !placed; date = date.AddDate(0, 0, 1) {
			var err error
			placed, err = s.tryBumpCore(ctx, st, ev, date)
			if err != nil {
				return err
			}
		}
		if placed {
			s.logger.Info("rescued failed core event", "run_id", st.run.ID, "event_ref", ev.ProjectRef)
			continue
		}
		if err := s.writeFailure(ctx, st, ev, "rescue pass: no bumpable core event found"); err != nil {
			return err
		}
	}
	return nil
}

// fixedWaveDate is the placement date for waves that cannot roam: the event's
// start date, clamped to today.
func (s *SchedulingEngineService) fixedWaveDate(ev *model.Event) time.Time {
	date := model.DateOf(ev.StartDatetime.In(s.cfg.Location))
	if today := s.timeProvider.Today(); date.Before(today) {
		date = today
	}
	return date
}

// leadCandidates orders the Freeosk pool: primary lead, other leads, club
// supervisors.
func (s *SchedulingEngineService) leadCandidates(
	ctx context.Context,
	date time.Time,
) ([]*model.Employee, error) {
	primary, err := s.rotations.GetRotationEmployee(ctx, date, model.RotationTypePrimaryLead, false)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	var out []*model.Employee
	if primary != nil {
		out = append(out, primary)
	}
	for _, emp := range roster {
		if emp.JobTitle == model.JobTitleLeadEventSpecialist && (primary == nil || emp.ID != primary.ID) {
			out = append(out, emp)
		}
	}
	for _, emp := range roster {
		if emp.JobTitle == model.JobTitleClubSupervisor {
			out = append(out, emp)
		}
	}
	return out, nil
}

// withSupervisorFallback prepends the rotation pick to the club supervisors.
func (s *SchedulingEngineService) withSupervisorFallback(
	ctx context.Context,
	primary *model.Employee,
) ([]*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Employee
	if primary != nil {
		out = append(out, primary)
	}
	for _, emp := range roster {
		if emp.JobTitle == model.JobTitleClubSupervisor && (primary == nil || emp.ID != primary.ID) {
			out = append(out, emp)
		}
	}
	return out, nil
}

// placeWithDayCheck tries candidates in order against the day-availability
// subset and records a failure when none fits.
func (s *SchedulingEngineService) placeWithDayCheck(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	candidates []*model.Employee,
	date time.Time,
	at time.Time,
) error {
	_, err := s.placeWithDayCheckResult(ctx, st, ev, candidates, date, at)
	return err
}

func (s *SchedulingEngineService) placeWithDayCheckResult(
	ctx context.Context,
	st *runState,
	ev *model.Event,
	candidates []*model.Employee,
	date time.Time,
	at time.Time,
) (bool, error) {
	var lastReason string
	for _, emp := range candidates {
		res, err := s.validator.ValidateDayOnly(ctx, emp, date)
		if err != nil {
			return false, err
		}
		if !res.IsValid {
			lastReason = res.FailureMessage()
			continue
		}
		pa, err := s.writePending(ctx, st, ev, emp.ID, at, pendingWrite{})
		if err != nil {
			return false, err
		}
		if pa == nil {
			return false, s.writeFailure(ctx, st, ev, "schedule datetime outside event window")
		}
		return true, nil
	}
	if lastReason == "" {
		lastReason = "no eligible employee available"
	}
	return false, s.writeFailure(ctx, st, ev, lastReason)
}

// employeeByID resolves an id against the active roster.
func (s *SchedulingEngineService) employeeByID(ctx context.Context, id string) (*model.Employee, error) {
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, emp := range roster {
		if emp.ID == id {
			return emp, nil
		}
	}
	return nil, nil
}
