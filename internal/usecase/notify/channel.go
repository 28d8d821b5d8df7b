// Package notify implements delivery of bot messages to the configured chat.
// It wraps a transport Channel with a circuit breaker, metrics and
// logging, and reports every outcome as a boolean so the poll loop never
// has to handle delivery errors.
package notify

import "context"

// Channel represents a chat delivery transport (Telegram today).
// Each channel implementation handles its own rate limiting and retries.
//
// Retry Policy Contract:
//   - Network errors, server errors, rate limiting: Retry with exponential backoff (max 3 attempts)
//   - Other API rejections: No retry
//   - Context timeout: No retry
//
// Thread Safety:
//   - All methods must be safe for concurrent use by multiple goroutines
type Channel interface {
	// Name returns the channel identifier used in logs, metrics labels
	// and the delivery health endpoint.
	Name() string

	// Send delivers text to chatID.
	//
	// Returns:
	//   - error: Non-nil if the message was not accepted after all retries.
	//     Errors may embed request URLs and must be sanitized before logging.
	Send(ctx context.Context, chatID int64, text string) error
}
