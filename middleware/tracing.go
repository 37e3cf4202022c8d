package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// tracerName is the instrumentation scope name for onward tracing.
const tracerName = "github.com/Zwork101/onward"

// Tracing returns middleware that wraps each invocation in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: onward.operation.name, onward.operation.key,
// onward.operation.kind. On error, the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, op *operation.Descriptor, next Handler) (onward.State, error) {
		ctx, span := tracer.Start(ctx, "onward.operation.invoke",
			trace.WithAttributes(
				attribute.String("onward.operation.name", op.Name()),
				attribute.String("onward.operation.key", op.Key().String()),
				attribute.String("onward.operation.kind", op.Kind().String()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		value, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return value, err
	}
}
