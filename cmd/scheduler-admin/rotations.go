package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fieldops/demo-scheduler/internal/bootstrap"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func runRotationsList(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("rotations-list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		rotations := data.NewRotationRepo(db)
		employees := data.NewEmployeeRepo(db)

		assignments, err := rotations.ListAssignments(ctx)
		if err != nil {
			return fmt.Errorf("list rotations: %w", err)
		}
		roster, err := employees.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("list employees: %w", err)
		}

		names := make(map[string]string, len(roster))
		for _, emp := range roster {
			names[emp.ID] = emp.Name
		}
		display := func(id string) string {
			if name, ok := names[id]; ok {
				return name
			}
			return id + " (inactive)"
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Day\tRotation\tPrimary\tBackup")
		for _, a := range assignments {
			backup := "-"
			if a.BackupEmployeeID != nil {
				backup = display(*a.BackupEmployeeID)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				weekdayNames[a.DayOfWeek], a.RotationType, display(a.PrimaryEmployeeID), backup)
		}
		return w.Flush()
	})
}

func runRotationsSet(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("rotations-set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	day := fs.Int("day", -1, "Weekday index, 0=Monday .. 6=Sunday (required)")
	rtRaw := fs.String("type", "", "Rotation type: juicer or primary_lead (required)")
	primary := fs.String("primary", "", "Primary employee id (required)")
	backup := fs.String("backup", "", "Optional backup employee id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, ok := model.ParseRotationType(*rtRaw)
	if !ok {
		return fmt.Errorf("invalid rotation type %q (valid: juicer, primary_lead)", *rtRaw)
	}

	req := &model.SetRotationRequest{
		DayOfWeek:         *day,
		RotationType:      rt,
		PrimaryEmployeeID: strings.TrimSpace(*primary),
	}
	if b := strings.TrimSpace(*backup); b != "" {
		req.BackupEmployeeID = &b
	}
	if err := req.Validate(); err != nil {
		return err
	}

	return withServices(cmdCtx, defaultCommandTimeout, func(ctx context.Context, services *bootstrap.ServiceContainer) error {
		assignment, err := services.Rotations.SetRotation(ctx, req)
		if err != nil {
			return fmt.Errorf("set rotation: %w", err)
		}
		cmdCtx.Logger.Info("rotation updated",
			"day", weekdayNames[assignment.DayOfWeek],
			"rotation_type", assignment.RotationType,
			"primary_employee_id", assignment.PrimaryEmployeeID)
		return nil
	})
}

func runScheduler(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "Maximum duration to wait for the run to complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}

	return withServices(cmdCtx, *timeout, func(ctx context.Context, services *bootstrap.ServiceContainer) error {
		run, err := services.Engine.RunAutoScheduler(ctx, model.RunTypeManual)
		if run != nil {
			printRunSummary(run)
		}
		return err
	})
}

func printRunSummary(run *model.SchedulerRun) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Metric\tValue")
	fmt.Fprintf(w, "Run ID\t%s\n", run.ID)
	fmt.Fprintf(w, "Status\t%s\n", run.Status)
	fmt.Fprintf(w, "Processed\t%d\n", run.TotalProcessed)
	fmt.Fprintf(w, "Scheduled\t%d\n", run.Scheduled)
	fmt.Fprintf(w, "Failed\t%d\n", run.Failed)
	fmt.Fprintf(w, "Requiring Swaps\t%d\n", run.RequiringSwaps)
	if run.ErrorMessage != nil {
		fmt.Fprintf(w, "Error\t%s\n", *run.ErrorMessage)
	}
	_ = w.Flush()
}

func importFile(ctx context.Context, cmdCtx *commandContext, services *bootstrap.ServiceContainer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	res, err := services.Importer.ImportWorkbook(ctx, f)
	if err != nil {
		return fmt.Errorf("import export: %w", err)
	}
	for _, rowErr := range res.RowErrors {
		fmt.Fprintf(os.Stderr, "row %d rejected: %v\n", rowErr.Row, rowErr.Err)
	}
	cmdCtx.Logger.Info("import finished", "imported", res.Imported, "row_errors", len(res.RowErrors))
	return nil
}
