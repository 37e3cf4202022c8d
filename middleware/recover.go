package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
// Without it, a panicking operation crashes the process, as is normal
// for Go.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *operation.Descriptor, next Handler) (value onward.State, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("operation panicked",
					slog.String("operation", op.Name()),
					slog.String("key", op.Key().String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				value = nil
				retErr = fmt.Errorf("panic in operation %s: %v", op.Name(), r)
			}
		}()
		return next(ctx)
	}
}
