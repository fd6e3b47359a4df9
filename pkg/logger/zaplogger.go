package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	log   *zap.SugaredLogger
	level zap.AtomicLevel
}

var zapLogger *ZapLogger

// NewLogger builds a logger from config, attaches fields to every entry and
// installs it as the process logger.
func NewLogger(config zap.Config, fields ...any) (*ZapLogger, error) {
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	zapLogger = wrap(logger, config.Level, fields...)
	return zapLogger, nil
}

// wrap skips the package-level helper and the method frame in caller info.
func wrap(logger *zap.Logger, level zap.AtomicLevel, fields ...any) *ZapLogger {
	logger = logger.WithOptions(zap.AddCallerSkip(2))
	return &ZapLogger{log: logger.Sugar().With(fields...), level: level}
}

func GetLogger() *ZapLogger {
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

// With returns a child logger for a component. It is called directly, not
// through the package helpers, so one caller frame less is skipped.
func (l *ZapLogger) With(values ...any) *ZapLogger {
	child := l.log.Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar()
	return &ZapLogger{log: child.With(values...), level: l.level}
}

func (l *ZapLogger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

// Printf serves fasthttp's server logger.
func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Fatalf satisfies goose.Logger so migrations log through zap.
func (l *ZapLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}
