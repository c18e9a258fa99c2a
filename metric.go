package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// initObservability creates the emitter's OTel tracer and instruments.
func (e *Emitter) initObservability() {
	e.tracer = otel.Tracer(e.name)
	if !e.metrics {
		return
	}
	meter := otel.Meter(e.name)
	e.calls, _ = meter.Int64Counter("dispatch.calls",
		metric.WithDescription("Total number of event firings"),
		metric.WithUnit("{call}"))
	e.delivered, _ = meter.Int64Counter("dispatch.delivered",
		metric.WithDescription("Total number of listener invocations"),
		metric.WithUnit("{invocation}"))
	e.failed, _ = meter.Int64Counter("dispatch.handler_errors",
		metric.WithDescription("Total number of listener failures"),
		metric.WithUnit("{error}"))
}

// countDelivery records one listener invocation and, if it failed, one error.
func (e *Emitter) countDelivery(ctx context.Context, event string, mode Mode, err error) {
	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("mode", mode.String()))
	e.delivered.Add(ctx, 1, attrs)
	if err != nil {
		e.failed.Add(ctx, 1, attrs)
	}
}
