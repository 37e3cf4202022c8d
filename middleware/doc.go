// Package middleware provides composable middleware for operation
// invocation.
//
// A [Middleware] wraps the terminal invocation of an operation.
// Middleware are composed with [Chain] and applied right-to-left: the
// first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → invocation
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs operation name, key, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — bounds the invocation context with a deadline
//   - [Tracing] — wraps the invocation in an OpenTelemetry span
//   - [Metrics] — records per-operation duration and outcome counters
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
