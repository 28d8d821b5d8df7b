package practicum

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeSuccess       = "success"
	outcomeUnreachable   = "unreachable"
	outcomeUnavailable   = "unavailable"
	outcomeDecode        = "decode_error"
	outcomeInvalidCursor = "invalid_cursor"
)

// Metrics holds Prometheus collectors for status API requests.
// A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates and registers status API metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practicum_requests_total",
				Help: "Total number of homework status requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "practicum_request_duration_seconds",
				Help:    "Homework status request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	if outcome != outcomeInvalidCursor {
		m.duration.Observe(elapsed.Seconds())
	}
}
