package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_SetsGlobalProvider(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() { _ = shutdown(ctx) }()

	_, span := otel.Tracer("otel_test").Start(ctx, "probe")
	defer span.End()
	if !span.SpanContext().HasTraceID() {
		t.Fatalf("expected a recording span with a trace id")
	}
}

func TestInit_StdoutExporter(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{UseStdout: true})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
