// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the bot.
//
// Key features:
//   - JSON and text output formats
//   - Optional size-rotated log file
//   - Poll cycle ID propagation
//   - Credential masking for error messages
//
// Example usage:
//
//	logger := logging.NewLogger()
//	logger = logging.WithCycleID(logger, cycleID)
//	logger.Error("poll failed", logging.Err(err))
package logging
