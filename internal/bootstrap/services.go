package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/fieldops/demo-scheduler/config"
	"github.com/fieldops/demo-scheduler/internal/adapters/ingest"
	"github.com/fieldops/demo-scheduler/internal/adapters/scheduler"
	"github.com/fieldops/demo-scheduler/internal/core"
	"github.com/fieldops/demo-scheduler/internal/data"
	"github.com/fieldops/demo-scheduler/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Roster    *core.RosterCacheService
	Rotations *service.RotationManagerService
	Validator *service.ConstraintValidatorService
	Conflicts *service.ConflictResolverService
	Engine    *service.SchedulingEngineService
	Runner    *scheduler.Runner
	Importer  *ingest.Importer
	Watcher   *ingest.Watcher
	Registry  *prometheus.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Employees    *data.EmployeeRepo
	Events       *data.EventRepo
	Schedules    *data.ScheduleRepo
	Pendings     *data.PendingAssignmentRepo
	Rotations    *data.RotationRepo
	TimeOff      *data.TimeOffRepo
	Availability *data.AvailabilityRepo
	Holidays     *data.HolidayRepo
	Runs         *data.SchedulerRunRepo
	Cache        *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		Employees:    data.NewEmployeeRepo(db),
		Events:       data.NewEventRepo(db),
		Schedules:    data.NewScheduleRepo(db),
		Pendings:     data.NewPendingAssignmentRepo(db),
		Rotations:    data.NewRotationRepo(db),
		TimeOff:      data.NewTimeOffRepo(db),
		Availability: data.NewAvailabilityRepo(db),
		Holidays:     data.NewHolidayRepo(db),
		Runs:         data.NewSchedulerRunRepo(db),
	}
	if redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// BuildServices wires repositories into the service layer and adapters.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)
	engineCfg := deps.Config.Engine.ToCore()

	// Cache is nil-safe; without Redis the roster service reads straight through.
	var cacheRepo core.CacheRepository
	if repos.Cache != nil {
		cacheRepo = repos.Cache
	}
	roster := core.NewRosterCacheService(core.RosterCacheServiceOptions{
		Cache:     cacheRepo,
		Employees: repos.Employees,
		Config:    core.RosterCacheConfig{TTL: deps.Config.Cache.RosterTTL},
	})

	rotations := service.NewRotationManagerService(service.RotationManagerOptions{
		Rotations: repos.Rotations,
		Roster:    roster,
		Logger:    logger,
	})

	validator := service.NewConstraintValidatorService(service.ConstraintValidatorOptions{
		Schedules:    repos.Schedules,
		Pendings:     repos.Pendings,
		Runs:         repos.Runs,
		TimeOff:      repos.TimeOff,
		Availability: repos.Availability,
		Holidays:     repos.Holidays,
		Roster:       roster,
		Config:       &engineCfg,
		Logger:       logger,
	})

	conflicts := service.NewConflictResolverService(service.ConflictResolverOptions{
		Schedules:    repos.Schedules,
		Holidays:     repos.Holidays,
		Roster:       roster,
		Config:       &engineCfg,
		Logger:       logger,
	})

	ranker := service.NewLeastLoadedRanker(service.LeastLoadedRankerOptions{
		Schedules: repos.Schedules,
		Logger:    logger,
	})

	engine := service.NewSchedulingEngineService(service.SchedulingEngineOptions{
		Events:    repos.Events,
		Schedules: repos.Schedules,
		Pendings:  repos.Pendings,
		Runs:      repos.Runs,
		Roster:    roster,
		Validator: validator,
		Rotations: rotations,
		Conflicts: conflicts,
		Ranker:    ranker,
		Config:    &engineCfg,
		Logger:    logger,
	})

	registry := prometheus.NewRegistry()
	metrics := scheduler.NewMetrics(registry)

	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Engine:   engine,
		Runs:     repos.Runs,
		Cache:    cacheRepo,
		Interval: deps.Config.Runner.Interval,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build runner: %w", err)
	}

	importer, err := ingest.NewImporter(ingest.ImporterOptions{
		Events:   repos.Events,
		Location: engineCfg.Location,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build importer: %w", err)
	}

	var watcher *ingest.Watcher
	if deps.Config.Ingest.Dir != "" {
		watcher, err = ingest.NewWatcher(ingest.WatcherOptions{
			Importer: importer,
			Dir:      deps.Config.Ingest.Dir,
			Interval: deps.Config.Ingest.Interval,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build ingest watcher: %w", err)
		}
	}

	return &ServiceContainer{
		Roster:    roster,
		Rotations: rotations,
		Validator: validator,
		Conflicts: conflicts,
		Engine:    engine,
		Runner:    runner,
		Importer:  importer,
		Watcher:   watcher,
		Registry:  registry,
	}, nil
}
