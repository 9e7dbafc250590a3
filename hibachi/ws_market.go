package hibachi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hibachi-xyz/hibachi-go/internal/logger"
)

// MessageHandler consumes one message received on a stream.
type MessageHandler func(message json.RawMessage)

// WSMarketConfig configures a WSMarketClient.
type WSMarketConfig struct {
	// DataAPIURL is the market data API base URL. Its https:// scheme is
	// rewritten to wss://. Defaults to DefaultDataAPIURL.
	DataAPIURL string
	// Executor replaces the default WebSocket transport. Tests inject
	// hibachitest.MockWSExecutor here.
	Executor WSExecutor
	// Retry overrides the connect retry policy.
	Retry *RetryConfig
}

// WSMarketClient streams public market data: prices, order books, trades.
//
// Connect must be called before Subscribe or Listen. Listen reads and
// dispatches one message at a time, so callers drive the receive loop:
//
//	for {
//	    if _, err := client.Listen(ctx); err != nil {
//	        break
//	    }
//	}
type WSMarketClient struct {
	endpoint string
	executor WSExecutor
	retry    RetryConfig
	conn     WSConnection
	handlers map[string][]MessageHandler
}

// NewWSMarketClient creates a market data stream client.
func NewWSMarketClient(cfg WSMarketConfig) *WSMarketClient {
	base := cfg.DataAPIURL
	if base == "" {
		base = DefaultDataAPIURL
	}
	executor := cfg.Executor
	if executor == nil {
		executor = NewGorillaWSExecutor()
	}
	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &WSMarketClient{
		endpoint: wsURL(base) + "/ws/market",
		executor: executor,
		retry:    retry,
		handlers: make(map[string][]MessageHandler),
	}
}

// Connect establishes the stream connection with retry.
func (c *WSMarketClient) Connect(ctx context.Context) error {
	conn, err := ConnectWithRetry(ctx, c.executor, c.endpoint+"?hibachiClient="+url.QueryEscape(ClientID), nil, c.retry)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// On registers a handler for a topic, e.g. "mark_price".
func (c *WSMarketClient) On(topic SubscriptionTopic, handler MessageHandler) {
	key := string(topic)
	c.handlers[key] = append(c.handlers[key], handler)
}

// Subscribe starts the given market data streams.
func (c *WSMarketClient) Subscribe(ctx context.Context, subscriptions []Subscription) error {
	return c.sendSubscriptionRequest(ctx, "subscribe", subscriptions)
}

// Unsubscribe stops the given market data streams.
func (c *WSMarketClient) Unsubscribe(ctx context.Context, subscriptions []Subscription) error {
	return c.sendSubscriptionRequest(ctx, "unsubscribe", subscriptions)
}

func (c *WSMarketClient) sendSubscriptionRequest(ctx context.Context, method string, subscriptions []Subscription) error {
	if c.conn == nil {
		return validationError("no existing ws connection, call Connect first")
	}
	message := map[string]any{
		"method": method,
		"parameters": map[string]any{
			"subscriptions": subscriptions,
		},
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return &SerializationError{Message: fmt.Sprintf("failed to serialize %s message: %v", method, err), Cause: err}
	}
	return c.conn.Send(ctx, string(payload))
}

// Listen reads one message, dispatches it to the handlers registered for
// its topic, and returns it.
func (c *WSMarketClient) Listen(ctx context.Context) (json.RawMessage, error) {
	if c.conn == nil {
		return nil, validationError("no existing ws connection, call Connect first")
	}
	raw, err := c.conn.Recv(ctx)
	if err != nil {
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

// Disconnect closes the stream connection. Connect must be called again
// before subscribing.
func (c *WSMarketClient) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		logger.WithField("error", err.Error()).Warn("market stream close failed")
	}
	return err
}

// wsURL rewrites an https base URL to its wss equivalent.
func wsURL(base string) string {
	return strings.Replace(base, "https://", "wss://", 1)
}
