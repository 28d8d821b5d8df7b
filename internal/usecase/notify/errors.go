package notify

import "errors"

// ErrEmptyMessage indicates that Notify was called without any text.
// The Bot API rejects empty messages, so they are dropped before sending.
var ErrEmptyMessage = errors.New("message is empty")

// Drop reasons used as the "reason" label of notification_dropped_total.
const (
	dropReasonCircuitOpen  = "circuit_open"
	dropReasonEmptyMessage = "empty_message"
)
