package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func is deferred
// with a pointer to the operation's named error.
func Time(ctx context.Context, logger *slog.Logger, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			logger.WarnContext(ctx, "op failed",
				"req_id", RequestID(ctx), "op", name, "dur_ms", dur.Milliseconds(), "err", *errp)
			return
		}
		logger.DebugContext(ctx, "op done",
			"req_id", RequestID(ctx), "op", name, "dur_ms", dur.Milliseconds())
	}
}
