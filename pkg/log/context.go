package log

import "context"

const loggerContextKey ctxKey = iota

type ctxKey byte

// ContextWithLogger returns a new context carrying the given logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext returns the logger carried by the context, or the
// standard logger when the context does not carry one.
func LoggerFromContext(ctx context.Context) Logger {
	if val := ctx.Value(loggerContextKey); val != nil {
		if logger, ok := val.(Logger); ok {
			return logger
		}
	}

	return Default()
}
