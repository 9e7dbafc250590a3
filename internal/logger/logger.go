// Package logger provides structured logging for the SDK, backed by zap.
//
// Library code logs through the package-level helpers so applications can
// swap the global logger (or silence it) without threading a logger through
// every client constructor.
package logger

import (
	"strings"
	"sync"
)

// Level represents the logging level
type Level int

const (
	// DebugLevel logs everything
	DebugLevel Level = iota
	// InfoLevel logs info, warnings, and errors
	InfoLevel
	// ErrorLevel logs only errors
	ErrorLevel
)

// Logger provides structured logging with contextual fields
type Logger struct {
	zap *ZapLogger
}

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

func init() {
	if zapLogger, err := NewZapLoggerFromEnv(); err == nil {
		globalLogger = &Logger{zap: zapLogger}
	} else {
		globalLogger = NewNop()
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

// SetLogger sets the global logger instance
func SetLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// LevelFromString converts a string to a log level
func LevelFromString(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// WithField returns a logger with a single additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zap: l.zap.WithField(key, value)}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zap: l.zap.WithFields(fields)}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) { l.zap.Debug(msg) }

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) { l.zap.Debugf(format, args...) }

// Info logs an info message
func (l *Logger) Info(msg string) { l.zap.Info(msg) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) { l.zap.Infof(format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(msg string) { l.zap.Warn(msg) }

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) { l.zap.Warnf(format, args...) }

// Error logs an error message
func (l *Logger) Error(msg string) { l.zap.Error(msg) }

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) { l.zap.Errorf(format, args...) }

// Debug is a convenience function that logs to the global logger
func Debug(msg string) { GetLogger().Debug(msg) }

// Debugf is a convenience function that logs to the global logger
func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }

// Info is a convenience function that logs to the global logger
func Info(msg string) { GetLogger().Info(msg) }

// Infof is a convenience function that logs to the global logger
func Infof(format string, args ...interface{}) { GetLogger().Infof(format, args...) }

// Warn is a convenience function that logs to the global logger
func Warn(msg string) { GetLogger().Warn(msg) }

// Warnf is a convenience function that logs to the global logger
func Warnf(format string, args ...interface{}) { GetLogger().Warnf(format, args...) }

// Error is a convenience function that logs to the global logger
func Error(msg string) { GetLogger().Error(msg) }

// Errorf is a convenience function that logs to the global logger
func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }

// WithField is a convenience function that returns a logger with a field
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields is a convenience function that returns a logger with fields
func WithFields(fields map[string]interface{}) *Logger {
	return GetLogger().WithFields(fields)
}
