// Package devseed loads a small development fixture set: a realistic club
// roster, a full rotation table, and a week of unstaffed events.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Employees *data.EmployeeRepo
	Events    *data.EventRepo
	Rotations *data.RotationRepo
	Holidays  *data.HolidayRepo
}

// NewServices constructs the repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		Employees: data.NewEmployeeRepo(db),
		Events:    data.NewEventRepo(db),
		Rotations: data.NewRotationRepo(db),
		Holidays:  data.NewHolidayRepo(db),
	}
}

type seedEmployee struct {
	Name          string
	JobTitle      model.JobTitle
	JuicerTrained bool
}

var seedRoster = []seedEmployee{
	{Name: "Dana Whitfield", JobTitle: model.JobTitleClubSupervisor},
	{Name: "Marcus Bell", JobTitle: model.JobTitleLeadEventSpecialist},
	{Name: "Priya Raman", JobTitle: model.JobTitleLeadEventSpecialist},
	{Name: "Tom Okafor", JobTitle: model.JobTitleEventSpecialist},
	{Name: "Lena Voss", JobTitle: model.JobTitleEventSpecialist},
	{Name: "Carl Jimenez", JobTitle: model.JobTitleEventSpecialist},
	{Name: "Ruth Calloway", JobTitle: model.JobTitleJuicerBarista, JuicerTrained: true},
	{Name: "Felix Nguyen", JobTitle: model.JobTitleJuicerBarista, JuicerTrained: true},
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ids, err := seedEmployees(ctx, svcs, logger)
	if err != nil {
		return err
	}
	if err := seedRotations(ctx, svcs, ids); err != nil {
		return err
	}
	if err := seedEvents(ctx, svcs); err != nil {
		return err
	}

	logger.InfoContext(ctx, "development seed completed")
	return nil
}

func seedEmployees(ctx context.Context, svcs Services, logger *slog.Logger) (map[string]string, error) {
	existing, err := svcs.Employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	byName := map[string]string{}
	for _, emp := range existing {
		byName[emp.Name] = emp.ID
	}

	for _, se := range seedRoster {
		if _, ok := byName[se.Name]; ok {
			continue
		}
		emp, err := svcs.Employees.Create(ctx, &model.CreateEmployeeRequest{
			Name:          se.Name,
			JobTitle:      se.JobTitle,
			JuicerTrained: se.JuicerTrained,
		})
		if err != nil {
			return nil, fmt.Errorf("seed employee %s: %w", se.Name, err)
		}
		byName[emp.Name] = emp.ID
		logger.DebugContext(ctx, "seeded employee", "name", emp.Name, "job_title", emp.JobTitle)
	}
	return byName, nil
}

func seedRotations(ctx context.Context, svcs Services, ids map[string]string) error {
	juicers := []string{ids["Ruth Calloway"], ids["Felix Nguyen"]}
	leads := []string{ids["Marcus Bell"], ids["Priya Raman"]}

	var reqs []*model.SetRotationRequest
	for day := 0; day < 7; day++ {
		backup := juicers[(day+1)%len(juicers)]
		reqs = append(reqs,
			&model.SetRotationRequest{
				DayOfWeek:         day,
				RotationType:      model.RotationTypeJuicer,
				PrimaryEmployeeID: juicers[day%len(juicers)],
				BackupEmployeeID:  &backup,
			},
			&model.SetRotationRequest{
				DayOfWeek:         day,
				RotationType:      model.RotationTypePrimaryLead,
				PrimaryEmployeeID: leads[day%len(leads)],
			},
		)
	}
	if err := svcs.Rotations.ReplaceAll(ctx, reqs); err != nil {
		return fmt.Errorf("seed rotations: %w", err)
	}
	return nil
}

func seedEvents(ctx context.Context, svcs Services) error {
	loc, err := time.LoadLocation(core.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	today := model.DateOf(time.Now().In(loc))

	type seedEvent struct {
		Ref      int
		Name     string
		Type     model.EventType
		StartOff int
		DueOff   int
		Duration int
	}
	events := []seedEvent{
		{Ref: 900101, Name: "Juicer Production 450001", Type: model.EventTypeJuicerProduction, StartOff: 1, DueOff: 6, Duration: 240},
		{Ref: 900102, Name: "Core Demo 450002", Type: model.EventTypeCore, StartOff: 1, DueOff: 8, Duration: 360},
		{Ref: 900103, Name: "Core Demo 450003", Type: model.EventTypeCore, StartOff: 2, DueOff: 9, Duration: 360},
		{Ref: 900104, Name: "Supervisor Checkpoint 450002", Type: model.EventTypeSupervisor, StartOff: 1, DueOff: 8, Duration: 15},
		{Ref: 900105, Name: "Freeosk Sampling 450004", Type: model.EventTypeFreeosk, StartOff: 2, DueOff: 7, Duration: 60},
		{Ref: 900106, Name: "Digital Setup 450005", Type: model.EventTypeDigitals, StartOff: 3, DueOff: 5, Duration: 45},
		{Ref: 900107, Name: "Digital Teardown 450005", Type: model.EventTypeDigitals, StartOff: 5, DueOff: 7, Duration: 45},
		{Ref: 900108, Name: "Wall Display Reset", Type: model.EventTypeOther, StartOff: 2, DueOff: 9, Duration: 90},
	}

	for _, se := range events {
		_, err := svcs.Events.Upsert(ctx, &model.CreateEventRequest{
			ProjectRef:               se.Ref,
			Name:                     se.Name,
			Type:                     se.Type,
			StartDatetime:            today.AddDate(0, 0, se.StartOff),
			DueDatetime:              today.AddDate(0, 0, se.DueOff),
			EstimatedDurationMinutes: se.Duration,
			Condition:                model.EventConditionUnstaffed,
		})
		if err != nil {
			return fmt.Errorf("seed event %d: %w", se.Ref, err)
		}
	}
	return nil
}
