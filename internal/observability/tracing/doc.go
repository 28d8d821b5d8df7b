// Package tracing provides OpenTelemetry helpers for the poll worker.
//
// Each poll cycle runs in a "poll.cycle" span; the API request is a child
// "practicum.fetch" span. No exporter is installed by default, so spans are
// dropped unless a TracerProvider is registered with otel.SetTracerProvider.
package tracing
