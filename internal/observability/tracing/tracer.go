// Package tracing provides OpenTelemetry span helpers for briefing runs.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the premarket-brief application.
var tracer = otel.Tracer("premarket-brief")

// GetTracer returns the global tracer for creating spans.
// This tracer can be used throughout the application to create new spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "collect.quotes")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
