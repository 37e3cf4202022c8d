// Package operation turns plain functions into registered graph nodes.
//
// Register inspects a function's signature: every parameter must be the
// run context (*onward.Plan) or a concrete state type, and the function
// may return one state value, optionally paired with an error. The
// declared shapes become the node's dependency list and OutputKey — the
// dependency graph is inferred entirely from them.
//
//	// Provides ParseResult, depends on the plan.
//	func ReadFile(p *onward.Plan) (*ParseResult, error)
//
//	// No output: participates in the graph under its function name.
//	func LogFile(res *ParseResult) error
//
// # Flavors
//
// Two descriptor flavors share the same validation, identity, and
// binding logic and differ only in invocation:
//
//   - [Immediate] — registered with [Registry.Register]; runs to
//     completion in a single call on whatever executor dispatches it.
//   - [Suspending] — registered with [Registry.RegisterSuspending];
//     declares a leading context.Context and may block at explicit
//     points. Only the cooperative Loop executor runs these natively.
//
// # Conflicts
//
// An OutputKey must be unique within a registry: two operations
// returning the same state type, or two no-output operations sharing a
// function name, fail at registration with onward.ErrDuplicateProvider.
package operation
