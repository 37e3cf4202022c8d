package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type runStartedEntry struct {
	name string
	hook RunStarted
}

type runCompletedEntry struct {
	name string
	hook RunCompleted
}

type runFailedEntry struct {
	name string
	hook RunFailed
}

type operationStartedEntry struct {
	name string
	hook OperationStarted
}

type operationCompletedEntry struct {
	name string
	hook OperationCompleted
}

type operationFailedEntry struct {
	name string
	hook OperationFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	runStarted         []runStartedEntry
	runCompleted       []runCompletedEntry
	runFailed          []runFailedEntry
	operationStarted   []operationStartedEntry
	operationCompleted []operationCompletedEntry
	operationFailed    []operationFailedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RunStarted); ok {
		r.runStarted = append(r.runStarted, runStartedEntry{name, h})
	}
	if h, ok := e.(RunCompleted); ok {
		r.runCompleted = append(r.runCompleted, runCompletedEntry{name, h})
	}
	if h, ok := e.(RunFailed); ok {
		r.runFailed = append(r.runFailed, runFailedEntry{name, h})
	}
	if h, ok := e.(OperationStarted); ok {
		r.operationStarted = append(r.operationStarted, operationStartedEntry{name, h})
	}
	if h, ok := e.(OperationCompleted); ok {
		r.operationCompleted = append(r.operationCompleted, operationCompletedEntry{name, h})
	}
	if h, ok := e.(OperationFailed); ok {
		r.operationFailed = append(r.operationFailed, operationFailedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Run event emitters
// ──────────────────────────────────────────────────

// EmitRunStarted notifies all extensions that implement RunStarted.
func (r *Registry) EmitRunStarted(ctx context.Context, p *onward.Plan) {
	for _, e := range r.runStarted {
		if err := e.hook.OnRunStarted(ctx, p); err != nil {
			r.logHookError("OnRunStarted", e.name, err)
		}
	}
}

// EmitRunCompleted notifies all extensions that implement RunCompleted.
func (r *Registry) EmitRunCompleted(ctx context.Context, p *onward.Plan, elapsed time.Duration) {
	for _, e := range r.runCompleted {
		if err := e.hook.OnRunCompleted(ctx, p, elapsed); err != nil {
			r.logHookError("OnRunCompleted", e.name, err)
		}
	}
}

// EmitRunFailed notifies all extensions that implement RunFailed.
func (r *Registry) EmitRunFailed(ctx context.Context, p *onward.Plan, runErr error) {
	for _, e := range r.runFailed {
		if err := e.hook.OnRunFailed(ctx, p, runErr); err != nil {
			r.logHookError("OnRunFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Operation event emitters
// ──────────────────────────────────────────────────

// EmitOperationStarted notifies all extensions that implement
// OperationStarted.
func (r *Registry) EmitOperationStarted(ctx context.Context, p *onward.Plan, op *operation.Descriptor) {
	for _, e := range r.operationStarted {
		if err := e.hook.OnOperationStarted(ctx, p, op); err != nil {
			r.logHookError("OnOperationStarted", e.name, err)
		}
	}
}

// EmitOperationCompleted notifies all extensions that implement
// OperationCompleted.
func (r *Registry) EmitOperationCompleted(ctx context.Context, p *onward.Plan, op *operation.Descriptor, elapsed time.Duration) {
	for _, e := range r.operationCompleted {
		if err := e.hook.OnOperationCompleted(ctx, p, op, elapsed); err != nil {
			r.logHookError("OnOperationCompleted", e.name, err)
		}
	}
}

// EmitOperationFailed notifies all extensions that implement
// OperationFailed.
func (r *Registry) EmitOperationFailed(ctx context.Context, p *onward.Plan, op *operation.Descriptor, opErr error) {
	for _, e := range r.operationFailed {
		if err := e.hook.OnOperationFailed(ctx, p, op, opErr); err != nil {
			r.logHookError("OnOperationFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Extension errors are never
// propagated: observers must not break the run.
func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Error("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
