package middleware

import (
	"context"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Handler is the terminal function that performs the operation
// invocation and returns its produced state (nil for no-output
// operations).
type Handler func(ctx context.Context) (onward.State, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the descriptor of the operation being invoked, and
// the next handler to call. Middleware MUST call next to continue the
// chain (unless short-circuiting on error).
type Middleware func(ctx context.Context, op *operation.Descriptor, next Handler) (onward.State, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, op *operation.Descriptor, next Handler) (onward.State, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (onward.State, error) {
				return mw(ctx, op, prev)
			}
		}
		return h(ctx)
	}
}
