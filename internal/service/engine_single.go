package service

import (
	"context"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// SingleEventSuggestion is the outcome of manual single-event scheduling: a
// concrete employee and datetime the caller can accept or discard.
type SingleEventSuggestion struct {
	Employee         *model.Employee `json:"employee"`
	ScheduleDatetime time.Time       `json:"schedule_datetime"`
}

// ScheduleSingleEvent suggests a placement for one event outside a full run:
// the type's default time on the default date, offered to role-appropriate
// employees in wave priority order. Returns nil when nobody validates.
func (s *SchedulingEngineService) ScheduleSingleEvent(
	ctx context.Context,
	ev *model.Event,
) (*SingleEventSuggestion, error) {
	date, err := s.defaultDateFor(ctx, ev)
	if err != nil {
		return nil, err
	}
	at := s.defaultTimeFor(ev, date)

	candidates, err := s.singleEventCandidates(ctx, ev, date)
	if err != nil {
		return nil, err
	}
	for _, emp := range candidates {
		res, err := s.validator.Validate(ctx, ValidateParams{
			Event:            ev,
			Employee:         emp,
			ScheduleDatetime: at,
		})
		if err != nil {
			return nil, err
		}
		if res.IsValid {
			return &SingleEventSuggestion{Employee: emp, ScheduleDatetime: at}, nil
		}
	}
	return nil, nil
}

// defaultDateFor is the event's start date clamped to today, except for
// supervisor checkpoints which follow their paired Core's scheduled date.
func (s *SchedulingEngineService) defaultDateFor(ctx context.Context, ev *model.Event) (time.Time, error) {
	if ev.Type == model.EventTypeSupervisor {
		if num, ok := ev.EventNumber(); ok {
			coreEv, err := s.events.FindScheduledEventByNumber(ctx, model.EventTypeCore, num)
			if err != nil {
				return time.Time{}, err
			}
			if coreEv != nil {
				sched, err := s.schedules.GetByEventRef(ctx, coreEv.ProjectRef)
				if err != nil {
					return time.Time{}, err
				}
				if sched != nil {
					return model.DateOf(sched.ScheduleDatetime.In(s.cfg.Location)), nil
				}
			}
		}
	}
	return s.fixedWaveDate(ev), nil
}

func (s *SchedulingEngineService) defaultTimeFor(ev *model.Event, date time.Time) time.Time {
	switch {
	case ev.Type == model.EventTypeCore:
		return s.cfg.CoreSlotsFor(date)[0].On(date)
	case ev.Type.IsJuicer():
		return s.cfg.JuicerTimeFor(ev.Type).On(date)
	case ev.Type == model.EventTypeFreeosk:
		return s.cfg.FreeoskTime.On(date)
	case ev.Type == model.EventTypeSupervisor:
		return s.cfg.SupervisorTime.On(date)
	case ev.Type == model.EventTypeDigitals:
		if ev.DigitalSubtype() == model.DigitalSubtypeTeardown {
			return s.cfg.DigitalTeardownSlots[0].On(date)
		}
		return s.cfg.DigitalSetupSlots[0].On(date)
	default:
		return s.cfg.OtherTime.On(date)
	}
}

// singleEventCandidates reuses the wave pools for the event's type.
func (s *SchedulingEngineService) singleEventCandidates(
	ctx context.Context,
	ev *model.Event,
	date time.Time,
) ([]*model.Employee, error) {
	switch {
	case ev.Type.IsJuicer():
		return s.juicerCandidates(ctx, date)
	case ev.Type == model.EventTypeCore:
		return s.buildCorePool(ctx, ev, date)
	case ev.Type == model.EventTypeSupervisor:
		return s.supervisorCandidates(ctx, date)
	case ev.Type == model.EventTypeFreeosk:
		return s.leadCandidates(ctx, date)
	case ev.Type == model.EventTypeDigitals:
		var primary *model.Employee
		var err error
		if ev.DigitalSubtype() == model.DigitalSubtypeTeardown {
			primary, err = s.rotations.GetSecondaryLead(ctx, date)
		} else {
			primary, err = s.rotations.GetRotationEmployee(ctx, date, model.RotationTypePrimaryLead, false)
		}
		if err != nil {
			return nil, err
		}
		return s.withSupervisorFallback(ctx, primary)
	default:
		roster, err := s.roster.ActiveEmployees(ctx)
		if err != nil {
			return nil, err
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
		return append(supers, leads...), nil
	}
}

// juicerCandidates orders the juicer pool: rotation primary, rotation backup,
// then any remaining juicer-capable employees in roster order.
func (s *SchedulingEngineService) juicerCandidates(
	ctx context.Context,
	date time.Time,
) ([]*model.Employee, error) {
	primary, backup, err := s.rotations.GetRotationWithBackup(ctx, date, model.RotationTypeJuicer)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []*model.Employee
	for _, emp := range []*model.Employee{primary, backup} {
		if emp != nil && !seen[emp.ID] {
			seen[emp.ID] = true
			out = append(out, emp)
		}
	}
	for _, emp := range roster {
		if emp.CanRunJuicerEvents() && !seen[emp.ID] {
			seen[emp.ID] = true
			out = append(out, emp)
		}
	}
	return out, nil
}
