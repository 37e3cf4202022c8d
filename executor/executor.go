// Package executor provides the pluggable execution strategies that run
// dispatched operation units and report completions one at a time.
//
// Three backends implement the same contract:
//
//   - [Serial] — a LIFO stack of deferred calls; JoinNext pops and runs
//     the most recently submitted unit synchronously. Deterministic, no
//     parallelism. The default.
//   - [Pool] — bounded goroutine parallelism behind a semaphore, with
//     an optional token-bucket submission rate limit.
//   - [Loop] — a single cooperative scheduler goroutine. Runs
//     suspending units natively and, under WithOffload, delegates
//     blocking immediate units to helper goroutines so the loop itself
//     never stalls.
//
// An error raised inside a unit propagates out of JoinNext to the
// caller; it is never swallowed.
package executor

import (
	"context"
	"time"

	"github.com/Zwork101/onward"
)

// Unit is a bound immediate operation ready for dispatch. Call performs
// the whole invocation and returns the produced state (nil for
// no-output operations).
type Unit struct {
	Key  onward.OutputKey
	Name string
	Call func() (onward.State, error)
}

// SuspendingUnit is a bound suspension-capable operation. Call receives
// a context the executor may cancel; the body may block at explicit
// points.
type SuspendingUnit struct {
	Key  onward.OutputKey
	Name string
	Call func(ctx context.Context) (onward.State, error)
}

// Completion reports one finished unit. When the unit failed, JoinNext
// returns the error alongside a Completion carrying only the Key, so
// callers can still attribute the failure.
type Completion struct {
	Key     onward.OutputKey
	Value   onward.State
	Elapsed time.Duration
}

// Executor is the pluggable execution strategy contract.
type Executor interface {
	// Running reports whether any unit is currently in flight.
	Running() bool

	// Submit enqueues or starts immediate units.
	Submit(units ...Unit) error

	// SubmitSuspending schedules suspension-capable units. Backends
	// without a cooperative scheduler fail with
	// onward.ErrSuspendNotSupported.
	SubmitSuspending(units ...SuspendingUnit) error

	// JoinNext blocks until at least one in-flight unit completes and
	// returns it. It fails with onward.ErrNotRunning when nothing is in
	// flight. A positive timeout bounds the wait: expiry returns
	// onward.ErrJoinTimeout with the in-flight set unchanged. A zero or
	// negative timeout waits indefinitely.
	JoinNext(timeout time.Duration) (Completion, error)

	// Close cancels in-flight work best-effort and clears internal
	// state.
	Close() error
}
