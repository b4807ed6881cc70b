// Package logger builds the service's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StageProd selects JSON output.
const StageProd = "prod"

// Config holds configuration for the logger.
type Config struct {
	Level string
	Stage string
}

// ParseLevel maps a level name to a zap level. Unknown names are info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a production JSON logger for the prod stage and a development
// console logger otherwise.
func New(cfg Config) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	var zapConfig zap.Config
	if cfg.Stage == StageProd {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.MessageKey = "message"
		zapConfig.InitialFields = map[string]interface{}{
			"service": "filing-engine",
			"stage":   cfg.Stage,
		}
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.DisableStacktrace = cfg.Stage == StageProd && level > zapcore.DebugLevel

	return zapConfig.Build()
}
