package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, user ID, duration, and any error codes/messages.
// Place it after the auth interceptor so the user ID is known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			userID := GetUserID(ctx) // empty if pre-auth
			duration := time.Since(start).Milliseconds()
			if err != nil {
				code := connect.CodeOf(err)
				level := slog.LevelWarn
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					level = slog.LevelError
				}
				slog.Log(ctx, level, "RPC error",
					"procedure", procedure,
					"code", code.String(),
					"error", err,
					"user_id", userID,
					"duration_ms", duration,
				)
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"user_id", userID,
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}
