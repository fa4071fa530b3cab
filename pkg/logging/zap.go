package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger implements the Logger interface using uber-go/zap.
type zapLogger struct {
	logger *zap.Logger
	fields []Field
}

// Option configures the zap-backed logger.
type Option func(*options)

type options struct {
	development bool
	level       *zapcore.Level
	outputPaths []string
}

// WithDevelopmentMode enables the human-readable development encoder.
func WithDevelopmentMode() Option {
	return func(o *options) { o.development = true }
}

// WithDebugLevel lowers the minimum level to debug.
func WithDebugLevel() Option {
	return func(o *options) {
		level := zapcore.DebugLevel
		o.level = &level
	}
}

// WithOutputPaths sets the output destinations (zap URL syntax, e.g. "stdout").
func WithOutputPaths(paths ...string) Option {
	return func(o *options) { o.outputPaths = paths }
}

// NewLogger creates a Logger backed by zap. With no options it logs JSON at
// info level to stdout.
func NewLogger(opts ...Option) Logger {
	o := &options{outputPaths: []string{"stdout"}}
	for _, opt := range opts {
		opt(o)
	}

	config := zap.NewProductionConfig()
	if o.development {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = o.outputPaths
	if o.level != nil {
		config.Level = zap.NewAtomicLevelAt(*o.level)
	}

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		// A broken logging config should not take the client down with it.
		return NewNopLogger()
	}

	return &zapLogger{logger: logger}
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	if ce := l.logger.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(l.convert(fields...)...)
	}
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	if ce := l.logger.Check(zapcore.InfoLevel, msg); ce != nil {
		ce.Write(l.convert(fields...)...)
	}
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	if ce := l.logger.Check(zapcore.WarnLevel, msg); ce != nil {
		ce.Write(l.convert(fields...)...)
	}
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	if ce := l.logger.Check(zapcore.ErrorLevel, msg); ce != nil {
		ce.Write(l.convert(fields...)...)
	}
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	combined := make([]Field, 0, len(l.fields)+len(fields))
	combined = append(combined, l.fields...)
	combined = append(combined, fields...)
	return &zapLogger{logger: l.logger, fields: combined}
}

// convert merges the logger's base fields with per-call fields into zap fields.
func (l *zapLogger) convert(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(l.fields)+len(fields))
	for _, f := range l.fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
