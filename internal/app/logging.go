package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	// Logger, when set, is used as is and the remaining fields are ignored.
	Logger *zap.Logger
	Level  string
	JSON   bool
}

// Logging bundles the logger and its adjustable level.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// NewLogging constructs logging dependencies.
func NewLogging(cfg LoggingConfig) (Logging, error) {
	if cfg.Logger != nil {
		return Logging{
			Logger: cfg.Logger,
			Level:  zap.NewAtomicLevelAt(cfg.Logger.Level()),
		}, nil
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return Logging{}, err
	}
	atomic := zap.NewAtomicLevelAt(level)

	zcfg := zap.NewProductionConfig()
	zcfg.Level = atomic
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !cfg.JSON {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := zcfg.Build()
	if err != nil {
		return Logging{}, fmt.Errorf("build logger: %w", err)
	}
	return Logging{
		Logger: logger.Named("app"),
		Level:  atomic,
	}, nil
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

func parseLevel(raw string) (zapcore.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return zapcore.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
