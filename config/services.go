package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeScheduler runs the automatic scheduler tick loop.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeIngestWatcher runs the work-order import watcher.
	ServiceModeIngestWatcher ServiceMode = "ingest-watcher"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeScheduler, ServiceModeIngestWatcher}
}

// ParseServices parses a comma-delimited string of service names and returns
// the enabled services. It validates that all service names are valid and
// returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeScheduler, ServiceModeIngestWatcher:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: scheduler, ingest-watcher)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// RunnerConfig contains scheduler runner configuration.
type RunnerConfig struct {
	// Interval is the tick interval of the automatic scheduler.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1h"`
}

// Sanitize applies guardrails to runner configuration values.
func (r *RunnerConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
}

// IngestConfig contains work-order import watcher configuration.
type IngestConfig struct {
	// Dir is the directory polled for xlsx work-order exports.
	Dir string `env:"INGEST_DIR" envDefault:"/var/lib/scheduler/inbox"`

	// Interval is the poll interval of the watcher.
	Interval time.Duration `env:"INGEST_INTERVAL" envDefault:"5m"`
}

// Sanitize applies guardrails to ingest configuration values.
func (i *IngestConfig) Sanitize() {
	i.Dir = strings.TrimSpace(i.Dir)
	if i.Interval < 10*time.Second {
		i.Interval = 10 * time.Second
	}
}
