package worker

import (
	"time"

	"homework-bot/internal/pkg/config"
	"homework-bot/internal/usecase/poll"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker component.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// poll-cycle metrics. It implements poll.Observer.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_poll_cycles_total: Total poll cycles by outcome
//   - worker_poll_cycle_duration_seconds: Duration histogram of poll cycles
//   - worker_poll_cursor: Current from_date cursor (Unix seconds)
//   - worker_poll_last_success_timestamp: Unix timestamp of last validated response
//
// Example usage:
//
//	metrics := NewWorkerMetrics(prometheus.DefaultRegisterer)
//	loop, _ := poll.NewLoop(client, notifier, cfg, poll.WithObserver(metrics))
type WorkerMetrics struct {
	// Embedded configuration metrics
	*config.ConfigMetrics

	// PollCyclesTotal counts finished poll cycles.
	// Type: Counter
	// Labels: outcome (notified, delivery_failed, no_updates, skipped, fetch_error, validation_error)
	PollCyclesTotal *prometheus.CounterVec

	// PollCycleDurationSeconds measures the duration of a poll cycle.
	// Type: Histogram
	// Buckets: 0.1s to 2m (a cycle is one API request plus at most one message)
	PollCycleDurationSeconds prometheus.Histogram

	// PollCursor is the cursor after the last cycle.
	// Type: Gauge
	PollCursor prometheus.Gauge

	// PollLastSuccessTimestamp records when a response last passed validation.
	// Type: Gauge
	PollLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a WorkerMetrics instance and registers every
// collector on reg.
//
// Parameters:
//   - reg: Registerer to use; tests pass prometheus.NewRegistry()
//
// Returns:
//   - *WorkerMetrics: Initialized and registered metrics
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)

	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		PollCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		}, []string{"outcome"}),

		PollCycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_cycle_duration_seconds",
			Help:    "Duration of poll cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		PollCursor: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_cursor",
			Help: "Current from_date cursor in Unix seconds",
		}),

		PollLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_last_success_timestamp",
			Help: "Unix timestamp of the last poll cycle whose response passed validation",
		}),
	}
}

// CycleCompleted records a finished poll cycle.
func (m *WorkerMetrics) CycleCompleted(outcome string, duration time.Duration, cursor int64) {
	m.PollCyclesTotal.WithLabelValues(outcome).Inc()
	m.PollCycleDurationSeconds.Observe(duration.Seconds())
	m.PollCursor.Set(float64(cursor))

	switch outcome {
	case poll.OutcomeFetchError, poll.OutcomeValidationError, poll.OutcomeCanceled:
	default:
		m.PollLastSuccessTimestamp.SetToCurrentTime()
	}
}
