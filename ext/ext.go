package ext

import (
	"context"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called when the orchestrator loop begins.
type RunStarted interface {
	OnRunStarted(ctx context.Context, p *onward.Plan) error
}

// RunCompleted is called after every reachable node has finished.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, p *onward.Plan, elapsed time.Duration) error
}

// RunFailed is called when the run aborts with an error.
type RunFailed interface {
	OnRunFailed(ctx context.Context, p *onward.Plan, err error) error
}

// ──────────────────────────────────────────────────
// Operation lifecycle hooks
// ──────────────────────────────────────────────────

// OperationStarted is called when an operation is dispatched to the
// executor.
type OperationStarted interface {
	OnOperationStarted(ctx context.Context, p *onward.Plan, op *operation.Descriptor) error
}

// OperationCompleted is called after an operation finishes and its
// result is recorded.
type OperationCompleted interface {
	OnOperationCompleted(ctx context.Context, p *onward.Plan, op *operation.Descriptor, elapsed time.Duration) error
}

// OperationFailed is called when an operation's invocation raises an
// error. The run aborts afterwards; this hook fires first.
type OperationFailed interface {
	OnOperationFailed(ctx context.Context, p *onward.Plan, op *operation.Descriptor, err error) error
}

// ──────────────────────────────────────────────────
// Other hooks
// ──────────────────────────────────────────────────

// Shutdown is called when the engine is closing.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
