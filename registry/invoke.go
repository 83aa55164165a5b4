package registry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
)

// invoke runs fn and converts a returned error or a panic into
// *ExecutionFailedError.
func invoke[T any](ctx context.Context, log *slog.Logger, kind, name string, fn func(context.Context) (T, error)) (res T, err error) {
	start := time.Now()
	ctx = logctx.WithCapabilityData(ctx, &logctx.CapabilityData{Kind: kind, Name: name})
	op := "registry.invoke_" + kind

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, op+".panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.Duration("dur", time.Since(start)),
			)
			var zero T
			res = zero
			err = &ExecutionFailedError{Kind: kind, Name: name, Message: fmt.Sprint(r)}
		}
	}()

	res, err = fn(ctx)
	if err != nil {
		log.InfoContext(ctx, op+".fail", slog.String("err", err.Error()), slog.Duration("dur", time.Since(start)))
		return res, &ExecutionFailedError{Kind: kind, Name: name, Message: err.Error(), Err: err}
	}
	log.DebugContext(ctx, op+".ok", slog.Duration("dur", time.Since(start)))
	return res, nil
}
