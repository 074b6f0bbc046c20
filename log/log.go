// Package log exposes a global sugared logger so that call sites stay short
// (log.Infof, log.Verbose, ...). Backed by zap, JSON to stdout. The level is
// read from the LOG_LEVEL env var ("debug" enables Verbose output).
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

func get() *zap.SugaredLogger {
	once.Do(func() {
		level := zapcore.InfoLevel
		if l, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			level = l
		}

		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		)
		logger = zap.New(core, zap.AddCallerSkip(1)).Sugar()
	})

	return logger
}

// SetLogger replaces the global logger. Useful in tests.
func SetLogger(l *zap.SugaredLogger) {
	once.Do(func() {})
	logger = l
}

func Info(args ...interface{}) {
	get().Info(args...)
}

func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

func Warn(args ...interface{}) {
	get().Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

func Error(args ...interface{}) {
	get().Error(args...)
}

func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Verbose logs at debug level.
func Verbose(args ...interface{}) {
	get().Debug(args...)
}

func Verbosef(format string, args ...interface{}) {
	get().Debugf(format, args...)
}
