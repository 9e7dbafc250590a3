package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger wraps zap.Logger to provide our logging interface
type ZapLogger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// NewZapLogger creates a new ZapLogger with the specified configuration
func NewZapLogger(level Level, development bool) (*ZapLogger, error) {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// Set log level
	switch level {
	case DebugLevel:
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case InfoLevel:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case ErrorLevel:
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	// An SDK should not write to stdout unless asked to
	config.OutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return &ZapLogger{
		Logger: logger,
		sugar:  logger.Sugar(),
	}, nil
}

// NewZapLoggerFromEnv creates a logger configured from environment variables
func NewZapLoggerFromEnv() (*ZapLogger, error) {
	levelStr := os.Getenv("HIBACHI_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}

	level := LevelFromString(levelStr)
	development := os.Getenv("HIBACHI_LOG_FORMAT") != "json"

	logger, err := NewZapLogger(level, development)
	if err != nil {
		return nil, err
	}

	if os.Getenv("HIBACHI_LOG_CALLER") == "true" {
		logger.Logger = logger.WithOptions(zap.AddCaller())
	}

	if stacktraceLevel := os.Getenv("HIBACHI_LOG_STACKTRACE"); stacktraceLevel != "" {
		var zapLevel zapcore.Level
		switch strings.ToLower(stacktraceLevel) {
		case "error":
			zapLevel = zap.ErrorLevel
		case "panic":
			zapLevel = zap.PanicLevel
		default:
			zapLevel = zap.FatalLevel
		}
		logger.Logger = logger.WithOptions(zap.AddStacktrace(zapLevel))
	}

	return logger, nil
}

// NewNop returns a logger that discards everything. Used as the fallback
// when logger construction fails and in tests that assert on behavior, not
// output.
func NewNop() *Logger {
	nop := zap.NewNop()
	return &Logger{zap: &ZapLogger{Logger: nop, sugar: nop.Sugar()}}
}

// WithField adds a single field to the logger context
func (l *ZapLogger) WithField(key string, value interface{}) *ZapLogger {
	child := l.With(zap.Any(key, value))
	return &ZapLogger{Logger: child, sugar: child.Sugar()}
}

// WithFields adds multiple fields to the logger context
func (l *ZapLogger) WithFields(fields map[string]interface{}) *ZapLogger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	child := l.With(zapFields...)
	return &ZapLogger{Logger: child, sugar: child.Sugar()}
}

// Debugf logs a formatted debug message
func (l *ZapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Infof logs a formatted info message
func (l *ZapLogger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warnf logs a formatted warning message
func (l *ZapLogger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Errorf logs a formatted error message
func (l *ZapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
