package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Reason sentinels. Every tagged error below carries exactly one of them,
// so callers can branch with errors.Is without knowing the concrete type.
var (
	// ErrMissingSecret indicates that a required secret is not configured.
	ErrMissingSecret = errors.New("missing required secret")

	// ErrInvalidSetting indicates that a configured value cannot be used at all.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrUnreachable indicates a network or transport failure talking to the API.
	ErrUnreachable = errors.New("endpoint unreachable")

	// ErrEndpointUnavailable indicates that the API answered with a non-200 status.
	ErrEndpointUnavailable = errors.New("endpoint unavailable")

	// ErrDecode indicates that the API body is not valid JSON.
	ErrDecode = errors.New("decode failure")

	// ErrShape indicates that the payload is not a JSON object.
	ErrShape = errors.New("shape error")

	// ErrMissingField indicates that a required field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrType indicates that a field has the wrong type or an out-of-range value.
	ErrType = errors.New("type error")

	// ErrNegativeCursor indicates a poll attempted with a cursor below zero.
	ErrNegativeCursor = errors.New("cursor must be non-negative")

	// ErrUnexpectedStatus indicates a review status outside the known catalog.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrDeliveryFailed indicates that the chat transport rejected or lost a message.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrDeliveryCircuitOpen indicates that delivery was skipped because the breaker is open.
	ErrDeliveryCircuitOpen = errors.New("delivery circuit breaker is open")
)

// ConfigError is the only fatal error kind. It lists every key that was
// missing or unusable so the operator can fix them in one pass.
type ConfigError struct {
	Reason error
	Keys   []string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("configuration error: %v", e.Reason)
	if len(e.Keys) > 0 {
		msg += ": " + strings.Join(e.Keys, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error { return joinNonNil(e.Reason, e.Err) }

// TransportError reports a failed poll request. StatusCode is set only for
// ErrEndpointUnavailable.
type TransportError struct {
	Reason     error
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("transport error: %v", e.Reason)
	if e.Endpoint != "" {
		msg += fmt.Sprintf(" (%s)", e.Endpoint)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error { return joinNonNil(e.Reason, e.Err) }

// ValidationError represents a rejected response payload with detailed field information.
type ValidationError struct {
	Reason  error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %v: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("validation error on field '%s': %v: %s", e.Field, e.Reason, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// DomainError reports a well-formed record that cannot be turned into a verdict.
type DomainError struct {
	Reason   error
	Homework string
	Value    string
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("domain error: %v", e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Homework != "" {
		msg += fmt.Sprintf(" for homework %q", e.Homework)
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.Reason }

// DeliveryError reports a notification that was not confirmed by the chat transport.
type DeliveryError struct {
	Reason  error
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("delivery error: %v", e.Reason)
	if e.Channel != "" {
		msg += fmt.Sprintf(" (%s)", e.Channel)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() []error { return joinNonNil(e.Reason, e.Err) }

// IsFatal reports whether err must stop the process. Only configuration
// errors are fatal; everything else is handled at the cycle boundary.
func IsFatal(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

func joinNonNil(errs ...error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
