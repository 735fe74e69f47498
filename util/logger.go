package util

import (
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logLevel reads LOG_LEVEL as a zapcore level number (-1 debug, 0 info, ...)
// or a level name. Anything else means info.
func logLevel(value string) zapcore.Level {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return zapcore.Level(n)
	}
	if level, err := zapcore.ParseLevel(value); err == nil && value != "" {
		return level
	}
	return zapcore.InfoLevel
}

func initLogger(serviceName string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(logLevel(os.Getenv("LOG_LEVEL")))
	zapCfg.EncoderConfig.CallerKey = "ln"
	zapCfg.EncoderConfig.FunctionKey = ""
	zapCfg.EncoderConfig.LevelKey = "severity"
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	if serviceName != "" {
		zapCfg.InitialFields = map[string]any{"service": serviceName}
	}

	return zapCfg.Build()
}

// NewLogger builds the process logger and installs it as zap's global.
// The returned func restores the previous global and flushes buffered entries.
func NewLogger(serviceName string) (*zap.Logger, func()) {
	logger, err := initLogger(serviceName)
	if err != nil {
		log.Fatalf("fail to init logger, error: %v", err)
	}

	undo := zap.ReplaceGlobals(logger)

	return logger, func() {
		undo()
		_ = logger.Sync()
	}
}
