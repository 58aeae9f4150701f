// Package logging wraps a shared zap SugaredLogger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

func init() {
	// sane default so tests and tools can log before Init runs
	l, _ := zap.NewDevelopment()
	sugar = l.Sugar()
}

// Init builds the process-wide logger from config values.
func Init(level, format string) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = logLevel
	cfg.OutputPaths = []string{"stdout"}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	sugar = logger.Sugar()
}

func Infof(template string, args ...any)  { sugar.Infof(template, args...) }
func Warnf(template string, args ...any)  { sugar.Warnf(template, args...) }
func Errorf(template string, args ...any) { sugar.Errorf(template, args...) }
func Fatalf(template string, args ...any) { sugar.Fatalf(template, args...) }

// Infow logs structured key/value context.
func Infow(msg string, keysAndValues ...any) { sugar.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any) { sugar.Warnw(msg, keysAndValues...) }

// Errorw logs an error with structured context.
func Errorw(msg string, keysAndValues ...any) { sugar.Errorw(msg, keysAndValues...) }

// Sync flushes buffered entries; call before exit.
func Sync() { _ = sugar.Sync() }
