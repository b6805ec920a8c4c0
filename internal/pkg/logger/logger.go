package logger

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

var global = zap.Must(zap.NewProduction()).Sugar()

// New builds the process-wide production logger.
func New() *zap.SugaredLogger {
	return zap.Must(zap.NewProduction()).Sugar()
}

// ToContext places the logger into the context so request-scoped code logs
// through it.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the context logger, falling back to the global one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return l
	}
	return global
}

func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Errorf(format, args...)
}
