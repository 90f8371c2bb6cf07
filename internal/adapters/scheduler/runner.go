// Package scheduler provides the tick-loop adapter that drives automatic
// scheduler runs on an interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/domain/model"
	"github.com/fieldops/demo-scheduler/internal/service"
)

const runLockKey = "scheduler:run-lock"

// Runner invokes the scheduling engine on a fixed interval. A tick is skipped
// when an unapproved run already holds proposals, and a Redis lock keeps
// concurrent replicas from starting overlapping runs.
type Runner struct {
	engine   *service.SchedulingEngineService
	runs     core.SchedulerRunRepository
	cache    core.CacheRepository
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics
}

// RunnerOptions holds the dependencies for NewRunner.
type RunnerOptions struct {
	Engine   *service.SchedulingEngineService
	Runs     core.SchedulerRunRepository
	Cache    core.CacheRepository // optional replica lock
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewRunner creates a new Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Engine == nil {
		return nil, errors.New("scheduling engine is required")
	}
	if opts.Runs == nil {
		return nil, errors.New("scheduler run repository is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		engine:   opts.Engine,
		runs:     opts.Runs,
		cache:    opts.Cache,
		interval: opts.Interval,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Run starts the tick loop and blocks until the context is cancelled. Run
// errors are logged and counted; the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scheduler runner starting", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick executes one runner iteration: skip when proposals are pending
// approval, otherwise take the lock and run the engine once.
func (r *Runner) Tick(ctx context.Context) {
	active, err := r.runs.ListActiveIDs(ctx)
	if err != nil {
		r.logger.Error("active run check failed", "error", err)
		return
	}
	if len(active) > 0 {
		r.logger.Debug("skipping tick, unapproved runs pending", "active_runs", len(active))
		r.metrics.observeSkip()
		return
	}

	if r.cache != nil {
		got, err := r.cache.SetIfNotExists(ctx, runLockKey, []byte("1"), r.interval)
		if err != nil {
			r.logger.Warn("run lock unavailable, proceeding unlocked", "error", err)
		} else if !got {
			r.logger.Debug("skipping tick, another replica holds the run lock")
			r.metrics.observeSkip()
			return
		} else {
			defer func() {
				if _, err := r.cache.Delete(ctx, runLockKey); err != nil {
					r.logger.Warn("run lock release failed", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	run, err := r.engine.RunAutoScheduler(ctx, model.RunTypeAutomatic)
	r.metrics.observeRun(run, time.Since(start).Seconds(), err)
	if err != nil {
		r.logger.Error("automatic run failed", "error", err)
	}
}
