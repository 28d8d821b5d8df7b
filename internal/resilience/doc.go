// Package resilience groups the fault tolerance helpers used around outbound calls.
//
// The package supports:
//   - Circuit breakers for the Telegram delivery channel
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.TelegramDeliveryConfig())
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, retry.WithBackoff(ctx, retry.TelegramSendConfig(), send)
//	})
package resilience
