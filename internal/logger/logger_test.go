package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// observedLogger returns a Logger whose output is captured for assertions.
func observedLogger(level zap.AtomicLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	z := zap.New(core)
	return &Logger{zap: &ZapLogger{Logger: z, sugar: z.Sugar()}}, logs
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{input: "debug", want: DebugLevel},
		{input: "DEBUG", want: DebugLevel},
		{input: "error", want: ErrorLevel},
		{input: "info", want: InfoLevel},
		{input: "anything else", want: InfoLevel},
		{input: "", want: InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromString(tt.input), tt.input)
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, logs := observedLogger(zap.NewAtomicLevelAt(zap.InfoLevel))

	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warnf("formatted %d", 42)
	logger.Error("broken")

	entries := logs.All()
	require.Len(t, entries, 3, "debug is below the configured level")
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "formatted 42", entries[1].Message)
	assert.Equal(t, "broken", entries[2].Message)
}

func TestWithFieldAttachesContext(t *testing.T) {
	logger, logs := observedLogger(zap.NewAtomicLevelAt(zap.DebugLevel))

	logger.WithField("method", "order.place").Debug("trade stream reply received")
	logger.WithFields(map[string]interface{}{"attempt": 2, "delay": "1s"}).Warn("retrying")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "order.place", entries[0].ContextMap()["method"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])
	assert.Equal(t, "1s", entries[1].ContextMap()["delay"])
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	replacement, logs := observedLogger(zap.NewAtomicLevelAt(zap.DebugLevel))
	SetLogger(replacement)

	Debug("through the global")
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "through the global", logs.All()[0].Message)
}

func TestNewNopDiscards(t *testing.T) {
	nop := NewNop()
	// Must not panic and must accept the full surface.
	nop.Debug("a")
	nop.Infof("%s", "b")
	nop.WithField("k", "v").Error("c")
}

func TestNewZapLoggerFromEnv(t *testing.T) {
	t.Setenv("HIBACHI_LOG_LEVEL", "debug")
	t.Setenv("HIBACHI_LOG_FORMAT", "json")

	logger, err := NewZapLoggerFromEnv()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
