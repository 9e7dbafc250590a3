package hibachi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hibachi-xyz/hibachi-go/internal/logger"
)

// RetryConfig controls ConnectWithRetry's backoff behavior.
type RetryConfig struct {
	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int
	// RetryDelay is the delay before the second attempt.
	RetryDelay time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
}

// DefaultRetryConfig matches the exchange's recommended reconnect policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    10,
		RetryDelay:    time.Second,
		BackoffFactor: 1.5,
	}
}

// ConnectWithRetry establishes a WebSocket connection, retrying with
// exponential backoff. The context cancels both dial attempts and the
// sleeps between them.
func ConnectWithRetry(ctx context.Context, executor WSExecutor, url string, header http.Header, cfg RetryConfig) (WSConnection, error) {
	if executor == nil {
		executor = NewGorillaWSExecutor()
	}
	if cfg.MaxRetries <= 0 {
		cfg = DefaultRetryConfig()
	}

	delay := cfg.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		conn, err := executor.Connect(ctx, url, header)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}
		logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warnf("connection attempt failed: %v, retrying", err)

		select {
		case <-ctx.Done():
			return nil, &WSConnectionError{Message: fmt.Sprintf("connect cancelled: %v", ctx.Err()), URL: url, Cause: ctx.Err()}
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
	}

	return nil, &WSConnectionError{
		Message: fmt.Sprintf("failed to connect after %d attempts: %v", cfg.MaxRetries, lastErr),
		URL:     url,
		Cause:   lastErr,
	}
}
