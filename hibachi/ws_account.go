package hibachi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hibachi-xyz/hibachi-go/internal/logger"
)

// listenTimeout bounds one stream read before a keepalive ping is sent.
const listenTimeout = 15 * time.Second

// WSAccountConfig configures a WSAccountClient.
type WSAccountConfig struct {
	// APIURL is the trading API base URL. Its https:// scheme is rewritten
	// to wss://. Defaults to DefaultAPIURL.
	APIURL string
	// AccountID selects the account to stream.
	AccountID int64
	// APIKey authenticates the stream.
	APIKey string
	// Executor replaces the default WebSocket transport.
	Executor WSExecutor
	// Retry overrides the connect retry policy.
	Retry *RetryConfig
}

// StreamStartResult is the response of the stream.start request.
type StreamStartResult struct {
	AccountSnapshot AccountSnapshot `json:"accountSnapshot"`
	ListenKey       string          `json:"listenKey"`
}

// WSAccountClient streams account updates: balance changes and position
// changes. The flow is Connect, StreamStart, then repeated Listen calls.
// Listen sends a keepalive ping when no message arrives within the read
// timeout.
type WSAccountClient struct {
	endpoint  string
	accountID int64
	apiKey    string
	executor  WSExecutor
	retry     RetryConfig

	conn      WSConnection
	messageID int64
	listenKey string
	handlers  map[string][]MessageHandler
}

// NewWSAccountClient creates an account stream client.
func NewWSAccountClient(cfg WSAccountConfig) *WSAccountClient {
	base := cfg.APIURL
	if base == "" {
		base = DefaultAPIURL
	}
	executor := cfg.Executor
	if executor == nil {
		executor = NewGorillaWSExecutor()
	}
	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &WSAccountClient{
		endpoint:  wsURL(base) + "/ws/account",
		accountID: cfg.AccountID,
		apiKey:    cfg.APIKey,
		executor:  executor,
		retry:     retry,
		handlers:  make(map[string][]MessageHandler),
	}
}

// Connect establishes the authenticated stream connection with retry.
func (c *WSAccountClient) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", c.apiKey)
	addr := fmt.Sprintf("%s?accountId=%d&hibachiClient=%s", c.endpoint, c.accountID, url.QueryEscape(ClientID))
	conn, err := ConnectWithRetry(ctx, c.executor, addr, header, c.retry)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// On registers a handler for a topic, e.g. "balance" or "positions".
func (c *WSAccountClient) On(topic string, handler MessageHandler) {
	c.handlers[topic] = append(c.handlers[topic], handler)
}

func (c *WSAccountClient) nextMessageID() int64 {
	c.messageID++
	return c.messageID
}

// StreamStart begins the account stream and returns the initial account
// snapshot. The returned listen key is kept for keepalive pings.
func (c *WSAccountClient) StreamStart(ctx context.Context) (*StreamStartResult, error) {
	if c.conn == nil {
		return nil, validationError("no existing ws connection, call Connect first")
	}
	message := map[string]any{
		"id":        c.nextMessageID(),
		"method":    "stream.start",
		"params":    map[string]any{"accountId": c.accountID},
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, &SerializationError{Message: fmt.Sprintf("failed to serialize stream.start message: %v", err), Cause: err}
	}
	if err := c.conn.Send(ctx, string(payload)); err != nil {
		return nil, err
	}

	raw, err := c.conn.Recv(ctx)
	if err != nil {
		return nil, err
	}
	var response struct {
		Result StreamStartResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to parse stream.start response: %v", err), Cause: err}
	}
	c.listenKey = response.Result.ListenKey
	return &response.Result, nil
}

// Ping sends a keepalive for the running stream. StreamStart must have been
// called first.
func (c *WSAccountClient) Ping(ctx context.Context) error {
	if c.conn == nil {
		return validationError("no existing ws connection, call Connect first")
	}
	if c.listenKey == "" {
		return validationError("cannot send ping: listen key not initialized")
	}
	message := map[string]any{
		"id":        c.nextMessageID(),
		"method":    "stream.ping",
		"params":    map[string]any{"accountId": c.accountID, "listenKey": c.listenKey},
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return &SerializationError{Message: fmt.Sprintf("failed to serialize stream.ping message: %v", err), Cause: err}
	}
	if err := c.conn.Send(ctx, string(payload)); err != nil {
		return err
	}

	raw, err := c.conn.Recv(ctx)
	if err != nil {
		return err
	}
	var response struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return &DeserializationError{Message: fmt.Sprintf("failed to parse stream.ping response: %v", err), Cause: err}
	}
	if response.Status == 200 {
		logger.Debug("pong")
	}
	return nil
}

// Listen reads one message with a bounded timeout and dispatches it to the
// handlers registered for its topic. A read timeout triggers a keepalive
// ping and returns a nil message.
func (c *WSAccountClient) Listen(ctx context.Context) (json.RawMessage, error) {
	if c.conn == nil {
		return nil, validationError("no existing ws connection, call Connect first")
	}

	readCtx, cancel := context.WithTimeout(ctx, listenTimeout)
	defer cancel()
	raw, err := c.conn.Recv(readCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			if pingErr := c.Ping(ctx); pingErr != nil {
				return nil, pingErr
			}
			return nil, nil
		}
		return nil, err
	}

	message := json.RawMessage(raw)
	var envelope struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to parse stream message: %v", err), Cause: err}
	}
	for _, handler := range c.handlers[envelope.Topic] {
		handler(message)
	}
	return message, nil
}

// Disconnect closes the stream connection and resets the stream state.
func (c *WSAccountClient) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.listenKey = ""
	return err
}
