// Package engine ties the subsystems together and drives a run to
// completion: it asks the graph for ready nodes, resolves their
// arguments from recorded results, dispatches invocable units to the
// executor, and feeds completions back into the graph.
//
// The engine package exists to break a fundamental import cycle: the
// root onward package defines Plan, State, and OutputKey (imported by
// operation, graph, executor, ext) and therefore cannot import those
// packages back. Engine sits above all subsystem packages and below the
// application layer.
//
// # Building an Engine
//
//	plan := onward.NewPlan(onward.WithLogger(logger))
//
//	eng, err := engine.Build(plan, reg,
//	    engine.WithExecutor(executor.NewPool(executor.WithWorkers(8))),
//	    engine.WithMiddleware(middleware.Logging(logger)),
//	    engine.WithExtension(journal.New()),
//	)
//
// Build constructs the dependency graph and verifies it: a cycle or a
// dependency with no provider fails here, before anything runs.
//
// # Running
//
//	if err := eng.StartOrResume(ctx); err != nil {
//	    // the run failed; states recorded before the failure remain
//	    // readable through onward.StateOf / plan.StateValue
//	}
//
// # Options
//
//   - [WithExecutor] — set the execution strategy (default Serial)
//   - [WithMiddleware] — add middleware to the invocation chain
//   - [WithExtension] — register a lifecycle extension
//   - [WithLogger] — set the engine logger (default: the plan's)
package engine
