package hibachi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
	"github.com/hibachi-xyz/hibachi-go/hibachi/hibachitest"
)

func fastRetry(attempts int) hibachi.RetryConfig {
	return hibachi.RetryConfig{
		MaxRetries:    attempts,
		RetryDelay:    time.Millisecond,
		BackoffFactor: 1,
	}
}

func TestConnectWithRetryFirstAttempt(t *testing.T) {
	t.Parallel()

	executor := hibachitest.NewMockWSExecutor()
	conn, err := hibachi.ConnectWithRetry(context.Background(), executor, "wss://example/ws", nil, fastRetry(3))
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Len(t, executor.CallLog(), 1)
}

func TestConnectWithRetryRecovers(t *testing.T) {
	t.Parallel()

	executor := hibachitest.NewMockWSExecutor()
	staged := hibachitest.NewMockWSConnection()
	executor.StageConnect(
		hibachitest.Err(errors.New("connection refused")),
		hibachitest.Err(errors.New("connection refused")),
		hibachitest.Value(staged),
	)

	conn, err := hibachi.ConnectWithRetry(context.Background(), executor, "wss://example/ws", nil, fastRetry(5))
	require.NoError(t, err)
	assert.Same(t, staged, conn)
	assert.Len(t, executor.CallLog(), 3)
}

func TestConnectWithRetryExhausted(t *testing.T) {
	t.Parallel()

	executor := hibachitest.NewMockWSExecutor()
	dialErr := errors.New("connection refused")
	executor.StageConnect(
		hibachitest.Err(dialErr),
		hibachitest.Err(dialErr),
		hibachitest.Err(dialErr),
	)

	_, err := hibachi.ConnectWithRetry(context.Background(), executor, "wss://example/ws", nil, fastRetry(3))
	var connErr *hibachi.WSConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Message, "failed to connect after 3 attempts")
	assert.ErrorIs(t, err, hibachi.ErrTransport)
	assert.Len(t, executor.CallLog(), 3)
}

func TestConnectWithRetryCancelled(t *testing.T) {
	t.Parallel()

	executor := hibachitest.NewMockWSExecutor()
	executor.StageConnect(hibachitest.Err(errors.New("connection refused")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := hibachi.RetryConfig{MaxRetries: 3, RetryDelay: time.Minute, BackoffFactor: 1}
	_, err := hibachi.ConnectWithRetry(ctx, executor, "wss://example/ws", nil, cfg)
	var connErr *hibachi.WSConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Message, "connect cancelled")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := hibachi.DefaultRetryConfig()
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.InDelta(t, 1.5, cfg.BackoffFactor, 0.001)
}
