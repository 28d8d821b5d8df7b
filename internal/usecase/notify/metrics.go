package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for message delivery.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// sent tracks delivery results per channel (status: success|failure)
	sent *prometheus.CounterVec

	// duration tracks how long a send took, retries included
	duration *prometheus.HistogramVec

	// dropped tracks messages that never reached the transport
	dropped *prometheus.CounterVec

	// circuitOpen tracks circuit breaker open events
	circuitOpen *prometheus.CounterVec
}

// NewMetrics creates and registers delivery metrics on reg.
//
// Parameters:
//   - reg: Registerer to use (prometheus.DefaultRegisterer in production,
//     a fresh prometheus.NewRegistry() in tests)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_sent_total",
				Help: "Total number of notifications sent",
			},
			[]string{"channel", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notification_duration_seconds",
				Help:    "Notification send duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"channel"},
		),
		dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_dropped_total",
				Help: "Total number of dropped notifications",
			},
			[]string{"channel", "reason"},
		),
		circuitOpen: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_circuit_breaker_open_total",
				Help: "Total number of circuit breaker open events",
			},
			[]string{"channel"},
		),
	}
}

// RecordSuccess records a delivered message and its send duration.
func (m *Metrics) RecordSuccess(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(channel, "success").Inc()
	m.duration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordFailure records a message the transport did not accept.
func (m *Metrics) RecordFailure(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(channel, "failure").Inc()
	m.duration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDropped records a message skipped before sending.
//
// Parameters:
//   - channel: The name of the notification channel
//   - reason: circuit_open or empty_message
func (m *Metrics) RecordDropped(channel, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(channel, reason).Inc()
}

// RecordCircuitBreakerOpen records a circuit breaker open event.
func (m *Metrics) RecordCircuitBreakerOpen(channel string) {
	if m == nil {
		return
	}
	m.circuitOpen.WithLabelValues(channel).Inc()
}
