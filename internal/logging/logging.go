package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/opsline-io/svcctl/internal/config"
)

// New creates the process logger: JSON to a rotated file, plus a console
// mirror on stderr when enabled. stdout stays reserved for command
// output.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// Rotation keeps the agent's log bounded on long-lived installs.
	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     30, // days
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), level),
	}

	if cfg.Console {
		consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, nil
}

// NewConsole creates a console-only logger on stderr for interactive
// commands, which should not need a writable log directory.
func NewConsole(levelText string) (*zap.Logger, error) {
	level, err := parseLevel(levelText)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	return zap.New(core), nil
}

func parseLevel(text string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}
