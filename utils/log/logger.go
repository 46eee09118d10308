package log

import (
	"context"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
	roleKey      ctxKey = "role"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	SetDevelopment(os.Getenv("DEBUG") == "true")
}

// SetDevelopment swaps the package logger for zap's development (debug level, console)
// or production configuration. Called again once the configuration is loaded.
func SetDevelopment(enabled bool) {
	build := zap.NewProduction
	if enabled {
		build = zap.NewDevelopment
	}
	l, err := build()
	if err != nil {
		l = zap.NewNop()
	}
	if old := logger.Swap(l); old != nil {
		_ = old.Sync()
	}
}

// ContextWithRequestID returns ctx carrying the request id for WithCtx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUser returns ctx carrying the authenticated user for WithCtx.
func ContextWithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value(requestIDKey); v != nil {
		fields = append(fields, zap.Any("request_id", v))
	}
	if v := ctx.Value(userIDKey); v != nil {
		fields = append(fields, zap.Any("user_id", v))
	}
	if v := ctx.Value(roleKey); v != nil {
		fields = append(fields, zap.Any("role", v))
	}

	return logger.Load().With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.Load().With(fields...)
}

func Sync() {
	_ = logger.Load().Sync()
}
