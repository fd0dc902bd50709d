package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/circles/pkg/circlesv1"
)

// outcome is implemented by response messages that carry a lifecycle
// result.
type outcome interface {
	Outcome() circlesv1.Result
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, caller, duration and outcome. Business rejections
// arrive as successful RPCs, so the result code is logged as well.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"peer", req.Peer().Addr,
			}

			resp, err := next(ctx, req)
			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

			var connectErr *connect.Error
			switch {
			case errors.As(err, &connectErr):
				slog.WarnContext(ctx, "RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			case err != nil:
				slog.ErrorContext(ctx, "RPC error", append(attrs, "error", err)...)
			default:
				if o, ok := resp.Any().(outcome); ok {
					if r := o.Outcome(); !r.Success {
						slog.InfoContext(ctx, "RPC rejected", append(attrs, "result_code", r.Code)...)
						return resp, err
					}
				}
				slog.InfoContext(ctx, "RPC ok", attrs...)
			}
			return resp, err
		}
	}
}
