// Package ingest imports unstaffed work-order events from xlsx exports.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// Importer parses work-order exports and upserts their events. Rows that fail
// validation are collected, not fatal; a bad export should still import the
// rows that parse.
type Importer struct {
	events core.EventRepository
	loc    *time.Location
	logger *slog.Logger
}

// ImporterOptions holds the dependencies for NewImporter.
type ImporterOptions struct {
	Events   core.EventRepository
	Location *time.Location
	Logger   *slog.Logger
}

// NewImporter creates a new Importer.
func NewImporter(opts ImporterOptions) (*Importer, error) {
	if opts.Events == nil {
		return nil, errors.New("event repository is required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{
		events: opts.Events,
		loc:    opts.Location,
		logger: opts.Logger,
	}, nil
}

// RowError records a row that could not be imported. Row is the 1-based sheet
// row number including the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Result summarizes one import.
type Result struct {
	Imported  int
	RowErrors []RowError
}

// Header names accepted for each field, after lowercasing and trimming.
var headerAliases = map[string][]string{
	"ref":      {"project ref", "project_ref", "project id", "ref"},
	"name":     {"name", "event name", "description"},
	"type":     {"type", "event type"},
	"start":    {"start", "start date", "start_datetime"},
	"due":      {"due", "due date", "due_datetime"},
	"duration": {"duration", "duration minutes", "estimated duration"},
}

// ImportWorkbook reads an xlsx export and upserts one unstaffed event per data
// row on the first sheet. The first row must be a header.
func (im *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return &Result{}, nil
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}
		req, err := im.parseRow(cols, row)
		if err != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: rowNum, Err: err})
			continue
		}
		if _, err := im.events.Upsert(ctx, req); err != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: rowNum, Err: err})
			continue
		}
		res.Imported++
	}

	im.logger.Info("work-order import finished",
		"sheet", sheet,
		"imported", res.Imported,
		"row_errors", len(res.RowErrors))
	return res, nil
}

func mapHeader(header []string) (map[string]int, error) {
	byName := map[string]int{}
	for i, cell := range header {
		byName[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	cols := map[string]int{}
	for field, aliases := range headerAliases {
		idx := -1
		for _, a := range aliases {
			if j, ok := byName[a]; ok {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("header is missing a %s column", field)
		}
		cols[field] = idx
	}
	return cols, nil
}

func (im *Importer) parseRow(cols map[string]int, row []string) (*model.CreateEventRequest, error) {
	ref, err := strconv.Atoi(strings.TrimSpace(cell(row, cols["ref"])))
	if err != nil {
		return nil, fmt.Errorf("invalid project ref: %w", err)
	}
	name := strings.TrimSpace(cell(row, cols["name"]))

	t, ok := model.ParseEventType(cell(row, cols["type"]))
	if !ok {
		t = classifyByName(name)
	}

	start, err := im.parseDatetime(cell(row, cols["start"]))
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	due, err := im.parseDatetime(cell(row, cols["due"]))
	if err != nil {
		return nil, fmt.Errorf("invalid due: %w", err)
	}
	dur, err := strconv.Atoi(strings.TrimSpace(cell(row, cols["duration"])))
	if err != nil {
		return nil, fmt.Errorf("invalid duration: %w", err)
	}

	req := &model.CreateEventRequest{
		ProjectRef:               ref,
		Name:                     name,
		Type:                     t,
		StartDatetime:            start,
		DueDatetime:              due,
		EstimatedDurationMinutes: dur,
		Condition:                model.EventConditionUnstaffed,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// classifyByName infers the event type from display-name conventions when the
// export carries no usable type column.
func classifyByName(name string) model.EventType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "deep clean"):
		return model.EventTypeJuicerDeepClean
	case strings.Contains(n, "juicer") && strings.Contains(n, "survey"):
		return model.EventTypeJuicerSurvey
	case strings.Contains(n, "juicer"):
		return model.EventTypeJuicerProduction
	case strings.Contains(n, "freeosk"):
		return model.EventTypeFreeosk
	case strings.Contains(n, "digital"):
		return model.EventTypeDigitals
	case strings.Contains(n, "supervisor"):
		return model.EventTypeSupervisor
	case strings.Contains(n, "core"):
		return model.EventTypeCore
	default:
		return model.EventTypeOther
	}
}

// Layouts seen in real exports, tried in order.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
	"01-02-06", // excelize default date formatting
}

func (im *Importer) parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty cell")
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, im.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
