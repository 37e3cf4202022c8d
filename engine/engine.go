package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/executor"
	"github.com/Zwork101/onward/ext"
	"github.com/Zwork101/onward/graph"
	mw "github.com/Zwork101/onward/middleware"
	"github.com/Zwork101/onward/operation"
)

// RunState tracks the engine lifecycle: Idle → Running → Completed or
// Failed. The terminal states are never left.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateCompleted
	StateFailed
)

// String returns the state name for logs.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Engine drives one plan run. Create it with Build and run it with
// StartOrResume.
type Engine struct {
	plan       *onward.Plan
	registry   *operation.Registry
	graph      *graph.Graph
	exec       executor.Executor
	extensions *ext.Registry
	mws        []mw.Middleware
	chain      mw.Middleware
	logger     *slog.Logger

	mu    sync.Mutex
	state RunState
}

// Option configures an Engine.
type Option func(*Engine)

// WithExecutor sets the execution strategy. The default is a Serial
// executor.
func WithExecutor(e executor.Executor) Option {
	return func(eng *Engine) { eng.exec = e }
}

// WithMiddleware adds middleware to the invocation chain. Middleware
// run in the order given, outermost first.
func WithMiddleware(mws ...mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, mws...) }
}

// WithExtension registers a lifecycle extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.extensions.Register(e) }
}

// WithLogger sets the engine's structured logger. The default is the
// plan's logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// Build creates an Engine over a plan and a registry. It constructs the
// dependency graph from the registry and verifies it: a cycle or a
// dependency no operation provides fails here, before any operation
// executes.
func Build(plan *onward.Plan, registry *operation.Registry, opts ...Option) (*Engine, error) {
	eng := &Engine{
		plan:       plan,
		registry:   registry,
		exec:       executor.NewSerial(),
		extensions: ext.NewRegistry(plan.Logger()),
		logger:     plan.Logger(),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(eng)
	}
	eng.chain = mw.Chain(eng.mws...)

	eng.graph = graph.New(registry)
	if err := eng.graph.Prepare(); err != nil {
		return nil, err
	}

	return eng, nil
}

// Plan returns the engine's plan.
func (e *Engine) Plan() *onward.Plan { return e.plan }

// State returns the current run state.
func (e *Engine) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s RunState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// PlanActive reports whether any graph node remains undone.
func (e *Engine) PlanActive() bool { return e.graph.Active() }

// StartOrResume runs the orchestrator loop until every reachable node
// is done or the run fails. On failure the original error is returned
// and every state recorded before the failure remains readable; nothing
// is rolled back.
func (e *Engine) StartOrResume(ctx context.Context) error {
	e.setState(StateRunning)
	e.extensions.EmitRunStarted(ctx, e.plan)

	e.logger.Info("run started",
		slog.String("run_id", e.plan.RunID().String()),
		slog.Int("operations", e.graph.Len()),
	)

	start := time.Now()
	if err := e.run(ctx); err != nil {
		e.setState(StateFailed)
		e.extensions.EmitRunFailed(ctx, e.plan, err)
		e.logger.Error("run failed",
			slog.String("run_id", e.plan.RunID().String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	elapsed := time.Since(start)
	e.setState(StateCompleted)
	e.extensions.EmitRunCompleted(ctx, e.plan, elapsed)

	e.logger.Info("run completed",
		slog.String("run_id", e.plan.RunID().String()),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// run is one full pass of the orchestrator loop. Each iteration either
// dispatches a fresh ready batch without blocking, or — when nothing
// new is ready — blocks on the executor for the next completion. The
// non-blocking dispatch path lets a node whose predecessors were
// already done get dispatched before the first blocking join.
func (e *Engine) run(ctx context.Context) error {
	for e.graph.Active() {
		ready, err := e.graph.Ready()
		if err != nil {
			return err
		}

		if len(ready) == 0 {
			if err := e.joinOne(ctx); err != nil {
				return err
			}
			continue
		}

		if err := e.dispatch(ctx, ready); err != nil {
			return err
		}
	}
	return nil
}

// joinOne blocks for the next completion, records its value, and marks
// the node done.
func (e *Engine) joinOne(ctx context.Context) error {
	comp, err := e.exec.JoinNext(0)
	if err != nil {
		if desc, ok := e.registry.Get(comp.Key); ok {
			e.extensions.EmitOperationFailed(ctx, e.plan, desc, err)
		}
		return err
	}

	desc, ok := e.registry.Get(comp.Key)
	if !ok {
		return fmt.Errorf("engine: executor completed unknown key %s", comp.Key)
	}

	if _, wantsValue := desc.Provides(); wantsValue {
		if comp.Value == nil {
			// Excluded by registration validation; reaching this means
			// the descriptor layer desynced.
			return fmt.Errorf("operation %q: %w: completed without a value for %s", desc.Name(), onward.ErrInvalidReturn, comp.Key)
		}
		if err := e.plan.RecordState(comp.Key, comp.Value); err != nil {
			return err
		}
	}

	if err := e.graph.MarkDone(comp.Key); err != nil {
		return err
	}

	e.extensions.EmitOperationCompleted(ctx, e.plan, desc, comp.Elapsed)
	e.logger.Debug("operation completed",
		slog.String("operation", desc.Name()),
		slog.String("key", comp.Key.String()),
		slog.Duration("elapsed", comp.Elapsed),
	)
	return nil
}

// dispatch resolves arguments for every ready node, wraps each
// invocation in the middleware chain, and submits the whole batch —
// immediate and suspending units each as one group.
func (e *Engine) dispatch(ctx context.Context, ready []onward.OutputKey) error {
	var units []executor.Unit
	var suspending []executor.SuspendingUnit

	for _, key := range ready {
		desc, ok := e.registry.Get(key)
		if !ok {
			return fmt.Errorf("engine: graph surfaced unknown key %s", key)
		}

		args, err := e.resolve(desc)
		if err != nil {
			return err
		}

		inv, err := desc.Bind(args...)
		if err != nil {
			return err
		}

		e.extensions.EmitOperationStarted(ctx, e.plan, desc)
		e.logger.Debug("operation dispatched",
			slog.String("operation", desc.Name()),
			slog.String("key", key.String()),
			slog.String("kind", desc.Kind().String()),
		)

		if desc.Kind() == operation.Suspending {
			suspending = append(suspending, executor.SuspendingUnit{
				Key:  key,
				Name: desc.Name(),
				Call: func(c context.Context) (onward.State, error) {
					return e.chain(c, desc, inv.Invoke)
				},
			})
		} else {
			units = append(units, executor.Unit{
				Key:  key,
				Name: desc.Name(),
				Call: func() (onward.State, error) {
					return e.chain(ctx, desc, inv.Invoke)
				},
			})
		}
	}

	if len(units) > 0 {
		if err := e.exec.Submit(units...); err != nil {
			return err
		}
	}
	if len(suspending) > 0 {
		if err := e.exec.SubmitSuspending(suspending...); err != nil {
			return err
		}
	}
	return nil
}

// resolve gathers a node's arguments: the plan for the context
// dependency, recorded states for everything else. Every state
// dependency is guaranteed recorded by the happens-before the graph
// enforces.
func (e *Engine) resolve(desc *operation.Descriptor) ([]any, error) {
	deps := desc.Dependencies()
	args := make([]any, 0, len(deps))
	for _, dep := range deps {
		if dep.Plan {
			args = append(args, e.plan)
			continue
		}
		v, ok := e.plan.StateValue(dep.Key)
		if !ok {
			return nil, fmt.Errorf("operation %q: dependency %s surfaced before its value was recorded", desc.Name(), dep.Key)
		}
		args = append(args, v)
	}
	return args, nil
}

// Close shuts the engine down: extensions are notified and the executor
// cancels in-flight work best-effort.
func (e *Engine) Close(ctx context.Context) error {
	e.extensions.EmitShutdown(ctx)
	return e.exec.Close()
}
