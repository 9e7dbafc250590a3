package hibachi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hibachi-xyz/hibachi-go/internal/logger"
	"github.com/shopspring/decimal"
)

// WSResponse is the generic envelope of a trade stream reply.
type WSResponse struct {
	ID     int64            `json:"id"`
	Status int              `json:"status"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *WSResponseError `json:"error,omitempty"`
}

// WSResponseError is the error half of a trade stream reply.
type WSResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WSTradeConfig configures a WSTradeClient.
type WSTradeConfig struct {
	// APIURL is the trading API base URL. Its https:// scheme is rewritten
	// to wss:// for the stream; the HTTP form is kept for the embedded REST
	// client. Defaults to DefaultAPIURL.
	APIURL string
	// DataAPIURL is the market data API base URL used by the embedded REST
	// client. Defaults to DefaultDataAPIURL.
	DataAPIURL string
	// AccountID selects the trading account.
	AccountID int64
	// APIKey authenticates the stream and the embedded REST client.
	APIKey string
	// PrivateKey signs order requests.
	PrivateKey string
	// Executor replaces the default WebSocket transport.
	Executor WSExecutor
	// HTTPExecutor replaces the embedded REST client's transport. The REST
	// client resolves contract metadata for signing payloads.
	HTTPExecutor HTTPExecutor
	// Retry overrides the connect retry policy.
	Retry *RetryConfig
}

// WSTradeClient places, modifies, and cancels orders over a WebSocket
// connection. Each request carries a correlation id; the client sends the
// request and reads the matching reply synchronously.
type WSTradeClient struct {
	endpoint  string
	accountID int64
	apiKey    string
	executor  WSExecutor
	retry     RetryConfig
	api       *Client

	conn      WSConnection
	messageID int64
}

// NewWSTradeClient creates a trading stream client.
func NewWSTradeClient(cfg WSTradeConfig) (*WSTradeClient, error) {
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

	api, err := NewClient(Config{
		APIURL:     base,
		DataAPIURL: cfg.DataAPIURL,
		AccountID:  cfg.AccountID,
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
		Executor:   cfg.HTTPExecutor,
	})
	if err != nil {
		return nil, err
	}

	return &WSTradeClient{
		endpoint:  wsURL(base) + "/ws/trade",
		accountID: cfg.AccountID,
		apiKey:    cfg.APIKey,
		executor:  executor,
		retry:     retry,
		api:       api,
		messageID: rand.Int63n(1_000_000) + 1,
	}, nil
}

// Connect establishes the authenticated stream connection with retry.
func (c *WSTradeClient) Connect(ctx context.Context) error {
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

func (c *WSTradeClient) nextMessageID() int64 {
	c.messageID++
	return c.messageID
}

// PlaceOrder submits one order over the stream and returns its nonce and
// id.
func (c *WSTradeClient) PlaceOrder(ctx context.Context, order CreateOrder) (*PlacedOrder, error) {
	nonce := newNonce()
	params, err := c.api.createOrderRequestData(ctx, nonce, order)
	if err != nil {
		return nil, err
	}
	params["accountId"] = c.accountID

	response, err := c.request(ctx, "order.place", params, params["signature"])
	if err != nil {
		return nil, err
	}

	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to extract order id from response: %v", err), Cause: err}
	}
	orderID, err := strconv.ParseInt(result.OrderID, 10, 64)
	if err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid order id %q in response", result.OrderID), Cause: err}
	}
	return &PlacedOrder{Nonce: nonce, OrderID: orderID}, nil
}

// CancelOrder cancels one order by id or creation nonce.
func (c *WSTradeClient) CancelOrder(ctx context.Context, sel OrderSelector) (*WSResponse, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}

	signed, err := c.api.cancelOrderRequestData(sel.OrderID, sel.Nonce)
	if err != nil {
		return nil, err
	}

	params := map[string]any{"accountId": c.accountID}
	if sel.OrderID != nil {
		params["orderId"] = strconv.FormatInt(*sel.OrderID, 10)
	} else {
		params["nonce"] = strconv.FormatInt(*sel.Nonce, 10)
	}
	return c.request(ctx, "order.cancel", params, signed["signature"])
}

// ModifyOrder updates an existing order's quantity and price over the
// stream. The existing order supplies the fields that are not changing.
func (c *WSTradeClient) ModifyOrder(ctx context.Context, order *Order, quantity, price decimal.Decimal, side Side, maxFeesPercent decimal.Decimal) (*WSResponse, error) {
	var triggerPrice *decimal.Decimal
	if order.TriggerPrice != nil {
		t, err := decimal.NewFromString(*order.TriggerPrice)
		if err != nil {
			return nil, validationError("invalid trigger price %q on existing order", *order.TriggerPrice)
		}
		triggerPrice = &t
	}

	orderID, err := strconv.ParseInt(order.OrderID, 10, 64)
	if err != nil {
		return nil, validationError("invalid order id %q on existing order", order.OrderID)
	}

	params, err := c.api.updateOrderRequestData(ctx, orderID, newNonce(), order.Symbol, quantity,
		side.normalize(), maxFeesPercent, &price, triggerPrice, nil, nil)
	if err != nil {
		return nil, err
	}
	params["accountId"] = c.accountID
	signature := params["signature"]
	delete(params, "signature")

	response, err := c.request(ctx, "order.modify", params, signature)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, &StatusError{StatusCode: response.Error.Code, Message: fmt.Sprintf("error modifying order: %s", response.Error.Message)}
	}
	return response, nil
}

// OrderStatus fetches one order's current state over the stream.
func (c *WSTradeClient) OrderStatus(ctx context.Context, orderID OrderID) (*Order, error) {
	params := map[string]any{
		"orderId":   strconv.FormatInt(orderID, 10),
		"accountId": c.accountID,
	}
	response, err := c.request(ctx, "order.status", params, nil)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(response.Result, &order); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to parse order status response: %v", err), Cause: err}
	}
	return &order, nil
}

// OrdersStatus fetches the state of all of the account's orders.
func (c *WSTradeClient) OrdersStatus(ctx context.Context) ([]Order, error) {
	params := map[string]any{"accountId": c.accountID}
	response, err := c.request(ctx, "orders.status", params, nil)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(response.Result, &orders); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to parse orders status response: %v", err), Cause: err}
	}
	return orders, nil
}

// CancelAllOrders cancels every pending order of the account in one
// request. It reports whether the exchange acknowledged the cancel.
func (c *WSTradeClient) CancelAllOrders(ctx context.Context) (bool, error) {
	nonce := newNonce()
	signed, err := c.api.cancelOrderRequestData(nil, &nonce)
	if err != nil {
		return false, err
	}

	params := map[string]any{
		"accountId": c.accountID,
		"nonce":     nonce,
	}
	response, err := c.request(ctx, "orders.cancel", params, signed["signature"])
	if err != nil {
		return false, err
	}
	return response.Status == 200, nil
}

// BatchOrders submits multiple order operations in one stream request.
func (c *WSTradeClient) BatchOrders(ctx context.Context, operations []BatchOperation) (*WSResponse, error) {
	nonce := newNonce()
	ordersData := make([]map[string]any, 0, len(operations))
	for i, op := range operations {
		var data map[string]any
		var err error
		switch o := op.(type) {
		case CreateOrder:
			data, err = c.api.createOrderRequestData(ctx, nonce+int64(i), o)
		case UpdateOrder:
			data, err = c.api.updateOrderRequestData(ctx, o.OrderID, nonce+int64(i), o.Symbol, o.Quantity,
				o.Side.normalize(), o.MaxFeesPercent, o.Price, o.TriggerPrice, o.CreationDeadline, o.OrderFlags)
		case CancelOrder:
			data, err = c.api.cancelOrderRequestData(o.OrderID, o.Nonce)
		default:
			return nil, validationError("unexpected batch operation type %T", op)
		}
		if err != nil {
			return nil, err
		}
		data["action"] = op.batchAction()
		ordersData = append(ordersData, data)
	}

	params := map[string]any{
		"accountId": c.accountID,
		"orders":    ordersData,
	}
	return c.request(ctx, "orders.batch", params, nil)
}

// EnableCancelOnDisconnect arms server-side cancellation of the account's
// orders when this connection drops.
func (c *WSTradeClient) EnableCancelOnDisconnect(ctx context.Context, timeoutWindowSeconds int) (*WSResponse, error) {
	params := map[string]any{
		"accountId":     c.accountID,
		"timeoutWindow": timeoutWindowSeconds,
	}
	return c.request(ctx, "orders.enableCancelOnDisconnect", params, nil)
}

// request sends one correlated request and reads its reply.
func (c *WSTradeClient) request(ctx context.Context, method string, params map[string]any, signature any) (*WSResponse, error) {
	if c.conn == nil {
		return nil, validationError("no existing ws connection, call Connect first")
	}

	message := map[string]any{
		"id":     c.nextMessageID(),
		"method": method,
		"params": params,
	}
	if signature != nil {
		message["signature"] = signature
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, &SerializationError{Message: fmt.Sprintf("failed to serialize %s message: %v", method, err), Cause: err}
	}
	if err := c.conn.Send(ctx, string(payload)); err != nil {
		return nil, &WSMessageError{Message: fmt.Sprintf("failed to send %s message: %v", method, err), Cause: err}
	}

	raw, err := c.conn.Recv(ctx)
	if err != nil {
		return nil, err
	}
	logger.WithField("method", method).Debug("trade stream reply received")

	var response WSResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("failed to parse %s response: %v", method, err), Cause: err}
	}
	return &response, nil
}

// Disconnect closes the stream connection.
func (c *WSTradeClient) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
