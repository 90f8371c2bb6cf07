package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Watcher polls a directory for xlsx work-order exports and imports them.
// Imported files move to a processed/ subdirectory, failed ones to failed/,
// so a crash mid-batch never imports a file twice.
type Watcher struct {
	importer *Importer
	dir      string
	interval time.Duration
	logger   *slog.Logger
}

// WatcherOptions holds the dependencies for NewWatcher.
type WatcherOptions struct {
	Importer *Importer
	Dir      string
	Interval time.Duration
	Logger   *slog.Logger
}

// NewWatcher creates a new Watcher.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.Importer == nil {
		return nil, errors.New("importer is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		importer: opts.Importer,
		dir:      opts.Dir,
		interval: opts.Interval,
		logger:   opts.Logger,
	}, nil
}

// Run polls the inbox until the context is cancelled. Import errors are
// logged; the loop keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("ingest watcher starting", "dir", w.dir, "interval", w.interval.String())

	for _, sub := range []string{"processed", "failed"} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingest watcher stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("inbox read failed", "dir", w.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xlsx") {
			continue
		}
		w.importFile(ctx, entry.Name())
	}
}

func (w *Watcher) importFile(ctx context.Context, name string) {
	path := filepath.Join(w.dir, name)

	f, err := os.Open(path)
	if err != nil {
		w.logger.Error("export open failed", "file", name, "error", err)
		return
	}
	res, err := w.importer.ImportWorkbook(ctx, f)
	f.Close()

	dest := "processed"
	if err != nil {
		dest = "failed"
		w.logger.Error("export import failed", "file", name, "error", err)
	} else {
		for _, rowErr := range res.RowErrors {
			w.logger.Warn("export row rejected", "file", name, "row", rowErr.Row, "error", rowErr.Err)
		}
		w.logger.Info("export imported",
			"file", name,
			"imported", res.Imported,
			"row_errors", len(res.RowErrors))
	}

	if err := os.Rename(path, filepath.Join(w.dir, dest, name)); err != nil {
		w.logger.Error("export move failed", "file", name, "dest", dest, "error", err)
	}
}
