package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fieldops/demo-scheduler/config"
)

// RunServicesWithShutdown runs the enabled long-lived services under one
// errgroup and blocks until they stop or a termination signal arrives.
func RunServicesWithShutdown(cfg *config.AppConfig, services *ServiceContainer, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if services == nil {
		return errors.New("service container is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.IsSchedulerEnabled() {
		g.Go(func() error {
			return services.Runner.Run(gctx)
		})
	}

	if cfg.IsIngestWatcherEnabled() {
		if services.Watcher == nil {
			return errors.New("ingest watcher enabled but not configured")
		}
		g.Go(func() error {
			return services.Watcher.Run(gctx)
		})
	}

	if cfg.Observability.Metrics.IsEnabled() {
		g.Go(func() error {
			return ServeMetrics(gctx, cfg.Observability.Metrics, services.Registry, logger)
		})
	}

	logger.Info("services running")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("services stopped")
	return nil
}
