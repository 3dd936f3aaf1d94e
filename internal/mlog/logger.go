// Package mlog provides the logging abstraction used across the deposit
// orchestrator: a small interface over zap, with context propagation so
// pipeline stages can log with request-scoped fields without threading a
// logger parameter through every call.
package mlog

// Logger is the common interface for log implementations used throughout
// the core.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	// WithFields returns a new Logger that includes the given key-value
	// pairs in every subsequent entry. The receiver is left unchanged.
	WithFields(fields ...any) Logger
}

// NoneLogger discards everything. It is the fallback used when a context
// carries no logger, so call sites never need a nil check.
type NoneLogger struct{}

func (l *NoneLogger) Info(_ ...any)            {}
func (l *NoneLogger) Infof(_ string, _ ...any) {}

func (l *NoneLogger) Warn(_ ...any)            {}
func (l *NoneLogger) Warnf(_ string, _ ...any) {}

func (l *NoneLogger) Error(_ ...any)            {}
func (l *NoneLogger) Errorf(_ string, _ ...any) {}

func (l *NoneLogger) Debug(_ ...any)            {}
func (l *NoneLogger) Debugf(_ string, _ ...any) {}

func (l *NoneLogger) Fatal(_ ...any)            {}
func (l *NoneLogger) Fatalf(_ string, _ ...any) {}

//nolint:ireturn
func (l *NoneLogger) WithFields(_ ...any) Logger { return l }
