package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const errorUnknownLogLevelFormat = "unknown log level %q"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// An empty level selects info.
func NewApplicationLogger(level string) (*zap.Logger, error) {
	atomicLevel, levelError := parseLogLevel(level)
	if levelError != nil {
		return nil, levelError
	}
	config := zap.NewProductionConfig()
	config.Level = atomicLevel
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.LevelKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}

func parseLogLevel(level string) (zap.AtomicLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case EmptyString, LogLevelInfo:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	case LogLevelDebug:
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	case LogLevelWarn:
		return zap.NewAtomicLevelAt(zapcore.WarnLevel), nil
	case LogLevelError:
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel), nil
	default:
		return zap.AtomicLevel{}, fmt.Errorf(errorUnknownLogLevelFormat, level)
	}
}
