package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/ext"
	"github.com/Zwork101/onward/operation"
)

// meterName is the instrumentation scope name for onward metrics.
const meterName = "github.com/Zwork101/onward/observability"

// Compile-time interface checks.
var (
	_ ext.Extension          = (*MetricsExtension)(nil)
	_ ext.RunStarted         = (*MetricsExtension)(nil)
	_ ext.RunCompleted       = (*MetricsExtension)(nil)
	_ ext.RunFailed          = (*MetricsExtension)(nil)
	_ ext.OperationCompleted = (*MetricsExtension)(nil)
	_ ext.OperationFailed    = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle counters via OTel. Register it as
// an engine extension to track run and operation outcomes.
type MetricsExtension struct {
	runsStarted         metric.Int64Counter
	runsCompleted       metric.Int64Counter
	runsFailed          metric.Int64Counter
	operationsCompleted metric.Int64Counter
	operationsFailed    metric.Int64Counter
}

// New creates a MetricsExtension using the global OTel MeterProvider.
func New() *MetricsExtension {
	return NewWithMeter(otel.Meter(meterName))
}

// NewWithMeter creates a MetricsExtension with the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func NewWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error, the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.runsStarted, _ = meter.Int64Counter(
		"onward.runs.started",
		metric.WithDescription("Total number of runs started"),
	)
	m.runsCompleted, _ = meter.Int64Counter(
		"onward.runs.completed",
		metric.WithDescription("Total number of runs completed"),
	)
	m.runsFailed, _ = meter.Int64Counter(
		"onward.runs.failed",
		metric.WithDescription("Total number of runs failed"),
	)
	m.operationsCompleted, _ = meter.Int64Counter(
		"onward.operations.completed",
		metric.WithDescription("Total number of operations completed"),
	)
	m.operationsFailed, _ = meter.Int64Counter(
		"onward.operations.failed",
		metric.WithDescription("Total number of operations failed"),
	)

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnRunStarted implements ext.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, _ *onward.Plan) error {
	m.runsStarted.Add(ctx, 1)
	return nil
}

// OnRunCompleted implements ext.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, _ *onward.Plan, _ time.Duration) error {
	m.runsCompleted.Add(ctx, 1)
	return nil
}

// OnRunFailed implements ext.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, _ *onward.Plan, _ error) error {
	m.runsFailed.Add(ctx, 1)
	return nil
}

// OnOperationCompleted implements ext.OperationCompleted.
func (m *MetricsExtension) OnOperationCompleted(ctx context.Context, _ *onward.Plan, op *operation.Descriptor, _ time.Duration) error {
	m.operationsCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op.Name()),
	))
	return nil
}

// OnOperationFailed implements ext.OperationFailed.
func (m *MetricsExtension) OnOperationFailed(ctx context.Context, _ *onward.Plan, op *operation.Descriptor, _ error) error {
	m.operationsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op.Name()),
	))
	return nil
}
