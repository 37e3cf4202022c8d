package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/operation"
)

// Logging returns middleware that logs operation start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *operation.Descriptor, next Handler) (onward.State, error) {
		logger.Info("operation started",
			slog.String("operation", op.Name()),
			slog.String("key", op.Key().String()),
		)

		start := time.Now()
		value, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("operation failed",
				slog.String("operation", op.Name()),
				slog.String("key", op.Key().String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("operation completed",
				slog.String("operation", op.Name()),
				slog.String("key", op.Key().String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return value, err
	}
}
