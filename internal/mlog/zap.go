package mlog

import (
	"os"

	"go.uber.org/zap"
)

// ZapLogger is the production Logger implementation, backed by a
// zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a ZapLogger. debug selects the development encoder config
// (console, caller, stack traces on warn+); otherwise a JSON production
// encoder is used.
func New(debug bool) *ZapLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		// Logger construction failing is a startup-fatal condition; there is
		// no logger yet to report it through.
		os.Stderr.WriteString("mlog: failed to build zap logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Info(args ...any)             { l.sugar.Info(args...) }
func (l *ZapLogger) Infof(format string, a ...any) { l.sugar.Infof(format, a...) }

func (l *ZapLogger) Warn(args ...any)             { l.sugar.Warn(args...) }
func (l *ZapLogger) Warnf(format string, a ...any) { l.sugar.Warnf(format, a...) }

func (l *ZapLogger) Error(args ...any)             { l.sugar.Error(args...) }
func (l *ZapLogger) Errorf(format string, a ...any) { l.sugar.Errorf(format, a...) }

func (l *ZapLogger) Debug(args ...any)             { l.sugar.Debug(args...) }
func (l *ZapLogger) Debugf(format string, a ...any) { l.sugar.Debugf(format, a...) }

func (l *ZapLogger) Fatal(args ...any)             { l.sugar.Fatal(args...) }
func (l *ZapLogger) Fatalf(format string, a ...any) { l.sugar.Fatalf(format, a...) }

// WithFields adds structured context to the logger. It returns a new
// logger and leaves the original unchanged.
//
//nolint:ireturn
func (l *ZapLogger) WithFields(fields ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(fields...)}
}

// Sync flushes any buffered log entries. Call on shutdown.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
