// Package onward provides a typed task-graph orchestration core for Go.
// Work is declared as independent operations, each stating the typed
// inputs it needs and the single typed output it produces. The dependency
// graph is inferred from those declared types — no edges are ever written
// by hand — and executed to completion under a pluggable execution
// strategy (serial, worker pool, or cooperative loop).
//
// # Quick Start
//
//	reg := operation.NewRegistry()
//	operation.MustRegister(reg, ReadFile)
//	operation.MustRegister(reg, UploadResults)
//
//	plan := onward.NewPlan(onward.WithLogger(logger))
//	eng, err := engine.Build(plan, reg,
//	    engine.WithExecutor(executor.NewPool(executor.WithWorkers(8))),
//	)
//	if err != nil {
//	    return err
//	}
//	return eng.StartOrResume(ctx)
//
// # Architecture
//
// The root package holds the shared primitives: OutputKey (graph-node
// identity), State (the marker for typed payloads), Plan (the per-run
// context and result mapping), and the sentinel errors. Subsystem
// packages — operation, graph, executor, middleware, ext — build on
// them, and engine wires everything together above them.
//
// Run identifiers use TypeID — type-prefixed, K-sortable, UUIDv7-based.
package onward
