// Package logging provides the leveled, field-carrying logger used across
// whisker. The default implementation is backed by zap.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}

	return InfoLevel, errors.Errorf("unknown log level %q", name)
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Fields represents structured logging fields
type Fields map[string]any

// Logger defines the logging surface the pipeline expects.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields
	WithFields(fields Fields) Logger

	// Sync flushes buffered entries.
	Sync() error
}

// Options configures New.
type Options struct {
	Level Level
	// JSON selects the production JSON encoder instead of the console one.
	JSON bool
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a zap-backed Logger.
func New(opts Options) (Logger, error) {
	var zcfg zap.Config
	if opts.JSON {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(opts.Level.zap())
	zcfg.DisableStacktrace = true

	base, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build zap logger")
	}

	return FromZap(base), nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.Sugar()}
}

// NewNop returns a logger that drops everything.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func flatten(fields []Fields) []any {
	n := 0
	for _, f := range fields {
		n += len(f) * 2
	}

	kv := make([]any, 0, n)
	for _, f := range fields {
		for k, v := range f {
			kv = append(kv, k, v)
		}
	}

	return kv
}

func (z *zapLogger) Debug(msg string, fields ...Fields) {
	z.sugar.Debugw(msg, flatten(fields)...)
}

func (z *zapLogger) Info(msg string, fields ...Fields) {
	z.sugar.Infow(msg, flatten(fields)...)
}

func (z *zapLogger) Warn(msg string, fields ...Fields) {
	z.sugar.Warnw(msg, flatten(fields)...)
}

func (z *zapLogger) Error(err error, msg string, fields ...Fields) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	z.sugar.Errorw(msg, kv...)
}

func (z *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{sugar: z.sugar.With(flatten([]Fields{fields})...)}
}

func (z *zapLogger) Sync() error {
	return z.sugar.Sync()
}

var globalLogger = NewNop()

// SetGlobalLogger sets the global logger instance. A nil logger installs a
// no-op logger.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger = NewNop()
		return
	}
	globalLogger = logger
}

// GetGlobalLogger returns the current global logger
func GetGlobalLogger() Logger {
	return globalLogger
}

// OrGlobal returns l, or the global logger when l is nil.
func OrGlobal(l Logger) Logger {
	if l == nil {
		return GetGlobalLogger()
	}
	return l
}
