package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(message string, values ...any)
	Fatal(error error, values ...any)
	Printf(format string, args ...interface{})
}

func init() {
	if _, err := NewLogger(configFor(os.Getenv("LOG_ENV"))); err != nil {
		panic(err)
	}
}

func configFor(env string) zap.Config {
	if env == "production" || env == "prod" {
		return zap.NewProductionConfig()
	}
	return zap.NewDevelopmentConfig()
}

// Configure rebuilds the process logger once configuration is loaded.
// Debug lowers the level to debug, otherwise info is the floor.
func Configure(env string, debug bool, fields ...any) error {
	config := configFor(env)
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		config.Level.SetLevel(zapcore.DebugLevel)
	}
	_, err := NewLogger(config, fields...)
	return err
}

// With returns a child of the process logger carrying fields.
func With(values ...any) *ZapLogger {
	return GetLogger().With(values...)
}

func Info(msg string, values ...any) {
	GetLogger().Info(msg, values...)
}

func Warn(msg string, values ...any) {
	GetLogger().Warn(msg, values...)
}

func Error(msg string, values ...any) {
	GetLogger().Error(msg, values...)
}

func Debug(msg string, values ...any) {
	GetLogger().Debug(msg, values...)
}

func Panic(msg string, values ...any) {
	GetLogger().Panic(msg, values...)
}

func Fatal(error error, values ...any) {
	GetLogger().Fatal(error, values...)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = GetLogger().log.Sync()
}
