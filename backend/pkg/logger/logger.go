package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"mercury/backend/internal/constants"
)

// Logger is the process-wide logger
var Logger *zap.Logger

// Init builds the global logger for the given environment.
// Production emits JSON at info level, everything else emits colored console output at debug.
func Init(env string) error {
	built, err := buildConfig(env).Build()
	if err != nil {
		return err
	}
	Logger = built

	return nil
}

func buildConfig(env string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.InitialFields = map[string]interface{}{"service": constants.ServiceName}
	return config
}

// Sync flushes buffered entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger, or a no-op logger when Init was never called
// (unit tests construct services without a configured logger).
func Get() *zap.Logger {
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

// Named returns a child of the global logger scoped to a component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
