// Package log provides a leveled logger with structured logging support.
package log

var (
	// std is the default logger used by the package-level functions.
	std = New()
)

// Default returns the standard logger used by the package-level output
// functions. Prefer passing an explicit Logger; the default exists for
// code without access to one.
func Default() Logger {
	return std
}

// SetOptions sets the options for the standard logger.
func SetOptions(opts ...Option) {
	std.SetOptions(opts...)
}

// WithOptions returns a clone of the standard logger with the given options.
func WithOptions(opts ...Option) Logger {
	return std.WithOptions(opts...)
}

// WithField allocates a new entry and adds a field to it.
func WithField(key string, value any) Logger {
	return std.WithField(key, value)
}

// WithFields adds a set of fields to a new entry of the standard logger.
func WithFields(fields Fields) Logger {
	return std.WithFields(fields)
}

// WithError adds an error to a new entry of the standard logger.
func WithError(err error) Logger {
	return std.WithError(err)
}

// Trace logs a message at level Trace on the standard logger.
func Trace(args ...any) {
	std.Trace(args...)
}

// Debug logs a message at level Debug on the standard logger.
func Debug(args ...any) {
	std.Debug(args...)
}

// Info logs a message at level Info on the standard logger.
func Info(args ...any) {
	std.Info(args...)
}

// Warn logs a message at level Warn on the standard logger.
func Warn(args ...any) {
	std.Warn(args...)
}

// Error logs a message at level Error on the standard logger.
func Error(args ...any) {
	std.Error(args...)
}

// Tracef logs a formatted message at level Trace on the standard logger.
func Tracef(format string, args ...any) {
	std.Tracef(format, args...)
}

// Debugf logs a formatted message at level Debug on the standard logger.
func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

// Infof logs a formatted message at level Info on the standard logger.
func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

// Warnf logs a formatted message at level Warn on the standard logger.
func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

// Errorf logs a formatted message at level Error on the standard logger.
func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}
