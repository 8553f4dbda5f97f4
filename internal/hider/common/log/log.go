package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global Logger = newZapLogger(false, zapcore.InfoLevel) // prod/info until Configure runs

// Logger is the structured logging interface shared by every hider component.
// Fields come first so call sites read as "what happened, with which context".
type Logger interface {
	Info(fields map[string]any, msg string)
	Error(fields map[string]any, msg string)
	Debug(fields map[string]any, msg string)
	Warn(fields map[string]any, msg string)
	Panic(fields map[string]any, msg string)
	Fatal(fields map[string]any, msg string)
	// With returns a child logger that adds fields to every entry.
	With(fields map[string]any) Logger
}

// SetLogger replaces the global logger instance.
func SetLogger(l Logger) {
	global = l
}

// GetLogger returns the current global logger instance.
func GetLogger() Logger {
	return global
}

// Configure sets up the global logger based on env and level.
// Any env other than "prod" selects the colored console encoder.
func Configure(env, level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	global = newZapLogger(env != "prod", lvl)
	return nil
}

// Component returns a child of the global logger tagged with the component name.
func Component(name string) Logger {
	return global.With(map[string]any{"component": name})
}

func Info(fields map[string]any, msg string)  { global.Info(fields, msg) }
func Error(fields map[string]any, msg string) { global.Error(fields, msg) }
func Debug(fields map[string]any, msg string) { global.Debug(fields, msg) }
func Warn(fields map[string]any, msg string)  { global.Warn(fields, msg) }
func Panic(fields map[string]any, msg string) { global.Panic(fields, msg) }
func Fatal(fields map[string]any, msg string) { global.Fatal(fields, msg) }

// NewWithCore returns a Logger writing to core. Tests pass a
// zaptest/observer core to assert on emitted entries.
func NewWithCore(core zapcore.Core) Logger {
	return &zapLogger{base: zap.New(core)}
}

// zapLogger implements Logger using Uber's zap.
type zapLogger struct {
	base *zap.Logger
}

func newZapLogger(dev bool, level zapcore.Level) Logger {
	var config zap.Config
	if dev {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "msg"
	config.EncoderConfig.LevelKey = "level"

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return &zapLogger{base: logger}
}

func (l *zapLogger) Info(fields map[string]any, msg string) {
	l.base.Info(msg, zapFields(fields)...)
}

func (l *zapLogger) Error(fields map[string]any, msg string) {
	l.base.Error(msg, zapFields(fields)...)
}

func (l *zapLogger) Debug(fields map[string]any, msg string) {
	l.base.Debug(msg, zapFields(fields)...)
}

func (l *zapLogger) Warn(fields map[string]any, msg string) {
	l.base.Warn(msg, zapFields(fields)...)
}

func (l *zapLogger) Panic(fields map[string]any, msg string) {
	l.base.Panic(msg, zapFields(fields)...)
}

func (l *zapLogger) Fatal(fields map[string]any, msg string) {
	l.base.Fatal(msg, zapFields(fields)...)
}

func (l *zapLogger) With(fields map[string]any) Logger {
	return &zapLogger{base: l.base.With(zapFields(fields)...)}
}

func zapFields(m map[string]any) []zap.Field {
	fields := make([]zap.Field, 0, len(m))
	for k, v := range m {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

type noopLogger struct{}

func (n *noopLogger) Info(map[string]any, string)  {}
func (n *noopLogger) Error(map[string]any, string) {}
func (n *noopLogger) Debug(map[string]any, string) {}
func (n *noopLogger) Warn(map[string]any, string)  {}
func (n *noopLogger) Panic(map[string]any, string) {}
func (n *noopLogger) Fatal(map[string]any, string) {}

func (n *noopLogger) With(map[string]any) Logger { return n }

// NewNoopLogger returns a Logger that discards all log messages.
func NewNoopLogger() Logger {
	return &noopLogger{}
}
