package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return exporter
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	exporter := installRecorder(t)

	_, span := StartSpan(context.Background(), "poll.cycle", attribute.Int64("poll.cursor", 500))
	EndSpan(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "poll.cycle" {
		t.Errorf("expected span name 'poll.cycle', got %q", spans[0].Name)
	}

	found := false
	for _, attr := range spans[0].Attributes {
		if attr.Key == "poll.cursor" && attr.Value.AsInt64() == 500 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected poll.cursor attribute, got %v", spans[0].Attributes)
	}
	if spans[0].Status.Code != codes.Unset {
		t.Errorf("expected unset status, got %v", spans[0].Status.Code)
	}
}

func TestEndSpan_RecordsError(t *testing.T) {
	exporter := installRecorder(t)

	_, span := StartSpan(context.Background(), "practicum.fetch")
	EndSpan(span, errors.New("endpoint unavailable"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "endpoint unavailable" {
		t.Errorf("unexpected status description %q", spans[0].Status.Description)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected an exception event on the span")
	}
}

func TestStartSpan_ChildOfParent(t *testing.T) {
	exporter := installRecorder(t)

	ctx, parent := StartSpan(context.Background(), "poll.cycle")
	_, child := StartSpan(ctx, "practicum.fetch")
	EndSpan(child, nil)
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("expected fetch span to be a child of the cycle span")
	}
}
