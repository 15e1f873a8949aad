// Package logging exposes the process logger.
//
// The verbose level is controlled by the -v/-vv/-vvv flags of the CLI.
// Warnings and errors are always printed.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/julien-sobczak/the-lessonwriter/pkg/resync"
)

var (
	// Lazy-load and ensure a single logger
	loggerOnce      resync.Once
	loggerSingleton *Logger
)

type VerboseLevel int

const (
	VerboseOff VerboseLevel = iota
	VerboseInfo
	VerboseDebug
	VerboseTrace
)

func CurrentLogger() *Logger {
	loggerOnce.Do(func() {
		loggerSingleton = NewLogger()
	})
	return loggerSingleton
}

// Reset discards the current logger. Useful in tests.
func Reset() {
	loggerOnce.Reset()
}

type Logger struct {
	verbose VerboseLevel
	level   zap.AtomicLevel
	sugar   *zap.SugaredLogger
}

// NewLogger creates a logger writing on stderr.
func NewLogger() *Logger {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg := zap.Config{
		Level:             level,
		Development:       false,
		DisableStacktrace: true,
		Encoding:          "console",
		EncoderConfig:     zap.NewDevelopmentEncoderConfig(),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return &Logger{
		verbose: VerboseOff,
		level:   level,
		sugar:   zapLogger.Sugar(),
	}
}

// NewFromZap wraps an existing zap logger (ex: zaptest.NewLogger(t)).
func NewFromZap(zapLogger *zap.Logger) *Logger {
	return &Logger{
		verbose: VerboseTrace,
		level:   zap.NewAtomicLevelAt(zapcore.DebugLevel),
		sugar:   zapLogger.Sugar(),
	}
}

// NewNop returns a logger discarding everything.
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

// SetVerboseLevel overrides the default verbose level
func (l *Logger) SetVerboseLevel(level VerboseLevel) *Logger {
	l.verbose = level
	switch {
	case level >= VerboseDebug:
		l.level.SetLevel(zapcore.DebugLevel)
	case level == VerboseInfo:
		l.level.SetLevel(zapcore.InfoLevel)
	default:
		l.level.SetLevel(zapcore.WarnLevel)
	}
	return l
}

func (l *Logger) VerboseLevel() VerboseLevel {
	return l.verbose
}

// With returns a child logger adding the key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{
		verbose: l.verbose,
		level:   l.level,
		sugar:   l.sugar.With(keysAndValues...),
	}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}
func (l *Logger) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	if l.verbose >= VerboseInfo {
		l.sugar.Infow(msg, keysAndValues...)
	}
}
func (l *Logger) Infof(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		l.sugar.Infof(format, v...)
	}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	if l.verbose >= VerboseDebug {
		l.sugar.Debugw(msg, keysAndValues...)
	}
}
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose >= VerboseDebug {
		l.sugar.Debugf(format, v...)
	}
}

// Trace is for very chatty messages (ex: every keystroke).
func (l *Logger) Trace(msg string, keysAndValues ...any) {
	if l.verbose >= VerboseTrace {
		l.sugar.Debugw(msg, keysAndValues...)
	}
}
