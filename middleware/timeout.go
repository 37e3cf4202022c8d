package middleware

import (
	"context"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Timeout returns middleware that bounds each invocation context with
// the given deadline. Suspending operations observe the cancellation
// through their context; immediate operations do not take a context and
// are unaffected.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, op *operation.Descriptor, next Handler) (onward.State, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
