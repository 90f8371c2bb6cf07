package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// Metrics holds the prometheus instruments for the scheduler runner.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	EventsScheduled prometheus.Counter
	EventsFailed    prometheus.Counter
	EventsSwapped   prometheus.Counter
	RunDuration     prometheus.Histogram
}

// NewMetrics creates and registers the runner metrics. A nil registerer skips
// registration, which tests use to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduler runs by result (completed, failed, skipped).",
		}, []string{"result"}),
		EventsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_scheduled_total",
			Help:      "Events given a proposed assignment.",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_failed_total",
			Help:      "Events that could not be placed.",
		}),
		EventsSwapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_swapped_total",
			Help:      "Placements that displaced a less urgent assignment.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one scheduler run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.EventsScheduled, m.EventsFailed, m.EventsSwapped, m.RunDuration)
	}
	return m
}

func (m *Metrics) observeRun(run *model.SchedulerRun, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "completed"
	if err != nil {
		result = "failed"
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(seconds)
	if run != nil {
		m.EventsScheduled.Add(float64(run.Scheduled))
		m.EventsFailed.Add(float64(run.Failed))
		m.EventsSwapped.Add(float64(run.RequiringSwaps))
	}
}

func (m *Metrics) observeSkip() {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues("skipped").Inc()
}
