package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"homework-bot/internal/domain/entity"
	"homework-bot/internal/observability/logging"
	"homework-bot/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
)

// DefaultSendTimeout bounds a single Notify call, retries included.
const DefaultSendTimeout = 60 * time.Second

// ChannelHealthStatus represents the health status of the delivery channel.
type ChannelHealthStatus struct {
	Name                string     `json:"name"`
	State               string     `json:"state"`
	CircuitBreakerOpen  bool       `json:"circuit_breaker_open"`
	ConsecutiveFailures uint32     `json:"consecutive_failures"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastFailure         *time.Time `json:"last_failure,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
}

// Service delivers messages through a single Channel.
//
// Notify never returns an error: failures are logged, counted and reported
// as false so a broken chat cannot stop the poll loop.
type Service struct {
	channel     Channel
	breaker     *circuitbreaker.CircuitBreaker
	metrics     *Metrics
	sendTimeout time.Duration

	mu          sync.Mutex
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	breaker     circuitbreaker.Config
	metrics     *Metrics
	sendTimeout time.Duration
}

// WithMetrics records delivery outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithCircuitBreaker replaces the default Telegram breaker settings.
func WithCircuitBreaker(cfg circuitbreaker.Config) Option {
	return func(o *serviceOptions) { o.breaker = cfg }
}

// WithSendTimeout bounds each Notify call. Non-positive values are ignored.
func WithSendTimeout(d time.Duration) Option {
	return func(o *serviceOptions) {
		if d > 0 {
			o.sendTimeout = d
		}
	}
}

// NewService creates a delivery service for channel.
//
// Parameters:
//   - channel: Transport used for every message
//   - opts: Optional metrics, breaker settings and send timeout
//
// Returns:
//   - *Service: Ready-to-use service; safe for concurrent use
func NewService(channel Channel, opts ...Option) *Service {
	o := serviceOptions{
		breaker:     circuitbreaker.TelegramDeliveryConfig(),
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{
		channel:     channel,
		metrics:     o.metrics,
		sendTimeout: o.sendTimeout,
	}

	breakerCfg := o.breaker
	breakerCfg.Name = channel.Name()
	userHook := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		if to == gobreaker.StateOpen {
			s.metrics.RecordCircuitBreakerOpen(name)
		}
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	s.breaker = circuitbreaker.New(breakerCfg)

	return s
}

// Notify sends message to destination and reports whether the transport
// confirmed delivery.
//
// The logger is taken from ctx (see logging.WithLogger) so delivery records
// carry the poll cycle ID.
//
// Parameters:
//   - ctx: Context for cancellation; also bounded by the send timeout
//   - destination: Chat identifier
//   - message: Plain-text message body
//
// Returns:
//   - bool: true if delivered, false on any failure (never panics or errors)
func (s *Service) Notify(ctx context.Context, destination int64, message string) bool {
	logger := logging.FromContext(ctx).With(slog.String("channel", s.channel.Name()))

	if message == "" {
		logger.Warn("notification dropped", logging.Err(ErrEmptyMessage))
		s.metrics.RecordDropped(s.channel.Name(), dropReasonEmptyMessage)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.channel.Send(sendCtx, destination, message)
	})
	duration := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		deliveryErr := &entity.DeliveryError{
			Reason:  entity.ErrDeliveryCircuitOpen,
			Channel: s.channel.Name(),
		}
		logger.Warn("notification dropped", logging.Err(deliveryErr))
		s.metrics.RecordDropped(s.channel.Name(), dropReasonCircuitOpen)
		s.recordFailure(deliveryErr)
		return false
	}

	if err != nil {
		deliveryErr := &entity.DeliveryError{
			Reason:  entity.ErrDeliveryFailed,
			Channel: s.channel.Name(),
			Err:     err,
		}
		logger.Warn("notification failed",
			slog.Duration("send_duration", duration),
			logging.Err(deliveryErr))
		s.metrics.RecordFailure(s.channel.Name(), duration)
		s.recordFailure(deliveryErr)
		return false
	}

	logger.Info("notification sent",
		slog.Duration("send_duration", duration))
	s.metrics.RecordSuccess(s.channel.Name(), duration)

	s.mu.Lock()
	s.lastSuccess = time.Now()
	s.mu.Unlock()

	return true
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFailure = time.Now()
	s.lastError = logging.SanitizeError(err)
}

// Health returns the current state of the delivery channel.
// The returned data is safe to serialize and share.
func (s *Service) Health() ChannelHealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ChannelHealthStatus{
		Name:                s.channel.Name(),
		State:               s.breaker.State().String(),
		CircuitBreakerOpen:  s.breaker.IsOpen(),
		ConsecutiveFailures: s.breaker.Counts().ConsecutiveFailures,
		LastError:           s.lastError,
	}
	if !s.lastSuccess.IsZero() {
		t := s.lastSuccess
		status.LastSuccess = &t
	}
	if !s.lastFailure.IsZero() {
		t := s.lastFailure
		status.LastFailure = &t
	}
	return status
}
