// Package observability groups the logging and tracing helpers of the bot.
//
// Subpackages:
//   - logging: slog construction, cycle-scoped loggers, secret redaction
//   - tracing: OpenTelemetry spans for poll cycles and status requests
//
// Prometheus collectors live next to the component they measure and are
// registered on an injected prometheus.Registerer.
package observability
