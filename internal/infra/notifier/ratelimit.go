package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter implements token bucket algorithm for rate limiting.
// It keeps outgoing messages under the Bot API per-chat limit.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new RateLimiter with the specified rate and burst capacity.
//
// Parameters:
//   - messagesPerSecond: Maximum sustained send rate (e.g., 1.0 for one message per second)
//   - burst: Maximum number of messages that can be sent back to back
//
// A non-positive rate disables limiting.
//
// Example:
//
//	limiter := NewRateLimiter(1.0, 1)  // Telegram: 1 msg/s per chat
func NewRateLimiter(messagesPerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(messagesPerSecond)
	if messagesPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context is canceled.
// It returns how long the caller was held back.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := r.limiter.Wait(ctx)
	return time.Since(start), err
}
