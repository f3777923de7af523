// Package logger carries a zap logger through context.Context so that request
// and generation scoped fields follow a call chain without being passed
// explicitly.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DevelopmentEnvironment selects the human readable, debug level logger.
	DevelopmentEnvironment = "development"
	// ProductionEnvironment selects the JSON, info level logger.
	ProductionEnvironment = "production"
	// TestEnvironment silences logging.
	TestEnvironment = "test"
)

// defaultLogger is used when no logger is attached to the context. It is a
// no-op logger until Setup is called.
var defaultLogger = zap.NewNop() //nolint: gochecknoglobals

// Setup replaces the default logger according to environment.
func Setup(environment string) {
	var (
		l   *zap.Logger
		err error
	)
	switch environment {
	case ProductionEnvironment:
		l, err = zap.NewProduction()
	case TestEnvironment:
		l = zap.NewNop()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return
	}

	defaultLogger = l
}

type key struct{}

// Get returns the logger attached to ctx, or the default logger.
func Get(ctx context.Context) *zap.Logger {
	if l, _ := ctx.Value(key{}).(*zap.Logger); l != nil {
		return l
	}

	return defaultLogger
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// WithFields attaches a child of the current logger carrying fields.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// IsDebug reports whether the logger in ctx is at debug level.
func IsDebug(ctx context.Context) bool {
	return Get(ctx).Level() == zap.DebugLevel
}

// Sync flushes the default logger. Errors are ignored since stderr sync
// commonly fails on terminals.
func Sync() {
	_ = defaultLogger.Sync()
}

func Debug(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Error(msg, fields...)
}

func Fatal(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Fatal(msg, fields...)
}
