package hibachi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// Config configures a Client.
type Config struct {
	// APIURL is the trading API base URL. Defaults to DefaultAPIURL.
	APIURL string
	// DataAPIURL is the market data API base URL. Defaults to
	// DefaultDataAPIURL.
	DataAPIURL string
	// AccountID selects the account for authorized endpoints.
	AccountID int64
	// APIKey authenticates authorized endpoints.
	APIKey string
	// PrivateKey signs order, withdraw, and transfer requests. A 0x-prefixed
	// hex string selects ECDSA wallet-account signing, anything else is used
	// as an HMAC web-account key.
	PrivateKey string
	// Executor replaces the default HTTP transport. Tests inject
	// hibachitest.MockHTTPExecutor here.
	Executor HTTPExecutor
}

// Client is the typed client for the Hibachi REST API.
//
// Market data endpoints need no credentials. Capital and trade endpoints
// require AccountID and APIKey; order placement additionally requires
// PrivateKey. The client caches the exchange's contract table after the
// first ExchangeInfo or Inventory call and uses it for signing-payload
// scaling and input validation.
type Client struct {
	executor  HTTPExecutor
	accountID int64
	signer    *signer

	mu        sync.RWMutex
	contracts map[string]FutureContract
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	dataAPIURL := cfg.DataAPIURL
	if dataAPIURL == "" {
		dataAPIURL = DefaultDataAPIURL
	}

	executor := cfg.Executor
	if executor == nil {
		executor = NewNetHTTPExecutor(apiURL, dataAPIURL, cfg.APIKey)
	} else if cfg.APIKey != "" {
		executor.SetAPIKey(cfg.APIKey)
	}

	c := &Client{
		executor:  executor,
		accountID: cfg.AccountID,
	}
	if cfg.PrivateKey != "" {
		s, err := newSigner(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.signer = s
	}
	return c, nil
}

// AccountID returns the configured account id, or an error if unset.
func (c *Client) AccountID() (int64, error) {
	if c.accountID == 0 {
		return 0, validationError("account id has not been set")
	}
	return c.accountID, nil
}

// SetAccountID replaces the account id used by authorized endpoints.
func (c *Client) SetAccountID(accountID int64) { c.accountID = accountID }

// SetAPIKey replaces the API key on the underlying executor.
func (c *Client) SetAPIKey(key string) { c.executor.SetAPIKey(key) }

// SetPrivateKey replaces the signing key.
func (c *Client) SetPrivateKey(privateKey string) error {
	s, err := newSigner(privateKey)
	if err != nil {
		return err
	}
	c.signer = s
	return nil
}

// FutureContracts returns the cached contract table. ExchangeInfo or
// Inventory must have been called first.
func (c *Client) FutureContracts() (map[string]FutureContract, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.contracts == nil {
		return nil, validationError("future contracts not yet loaded")
	}
	out := make(map[string]FutureContract, len(c.contracts))
	for k, v := range c.contracts {
		out[k] = v
	}
	return out, nil
}

/* Market API endpoints, available without an account */

// ExchangeInfo fetches exchange metadata: contracts, fee schedule,
// withdrawal limits, and maintenance windows. A non-NORMAL exchange status
// yields a MaintenanceOutageError.
//
// Endpoint: GET /market/exchange-info
func (c *Client) ExchangeInfo(ctx context.Context) (*ExchangeInfo, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/exchange-info")
	if err != nil {
		return nil, err
	}

	var info ExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid exchange info response: %v", err), Cause: err}
	}
	if err := checkMaintenanceWindow(info.Status, info.MaintenanceWindow); err != nil {
		return nil, err
	}

	c.storeContracts(info.FutureContracts)
	return &info, nil
}

// Inventory fetches contract metadata together with latest price data,
// cross-chain assets, and trading tiers.
//
// Endpoint: GET /market/inventory
func (c *Client) Inventory(ctx context.Context) (*InventoryResponse, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/inventory")
	if err != nil {
		return nil, err
	}

	var inv InventoryResponse
	if err := json.Unmarshal(body, &inv); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid inventory response: %v", err), Cause: err}
	}

	contracts := make([]FutureContract, 0, len(inv.Markets))
	for _, m := range inv.Markets {
		contracts = append(contracts, m.Contract)
	}
	c.storeContracts(contracts)
	return &inv, nil
}

// Prices fetches mark, spot, and index prices plus the funding rate
// estimation for one symbol.
//
// Endpoint: GET /market/data/prices
func (c *Client) Prices(ctx context.Context, symbol string) (*PriceResponse, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/data/prices?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return nil, err
	}

	var prices PriceResponse
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid prices response: %v", err), Cause: err}
	}
	return &prices, nil
}

// Stats fetches 24-hour trading statistics for one symbol.
//
// Endpoint: GET /market/data/stats
func (c *Client) Stats(ctx context.Context, symbol string) (*StatsResponse, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/data/stats?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return nil, err
	}

	var stats StatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid stats response: %v", err), Cause: err}
	}
	return &stats, nil
}

// RecentTrades fetches the most recent public trades for one symbol.
//
// Endpoint: GET /market/data/trades
func (c *Client) RecentTrades(ctx context.Context, symbol string) (*TradesResponse, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/data/trades?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return nil, err
	}

	var trades TradesResponse
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid trades response: %v", err), Cause: err}
	}
	return &trades, nil
}

// Klines fetches candlestick data for one symbol at the given interval.
//
// Endpoint: GET /market/data/klines
func (c *Client) Klines(ctx context.Context, symbol string, interval Interval) (*KlinesResponse, error) {
	path := fmt.Sprintf("/market/data/klines?symbol=%s&interval=%s", url.QueryEscape(symbol), interval)
	body, err := c.sendSimpleRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var klines KlinesResponse
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid klines response: %v", err), Cause: err}
	}
	return &klines, nil
}

// OpenInterest fetches the total outstanding contract quantity for one
// symbol.
//
// Endpoint: GET /market/data/open-interest
func (c *Client) OpenInterest(ctx context.Context, symbol string) (*OpenInterestResponse, error) {
	body, err := c.sendSimpleRequest(ctx, "/market/data/open-interest?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return nil, err
	}

	var oi OpenInterestResponse
	if err := json.Unmarshal(body, &oi); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid open interest response: %v", err), Cause: err}
	}
	return &oi, nil
}

// Orderbook fetches aggregated bid and ask levels for one symbol. depth
// must be within [1, 100] and granularity must be one of the contract's
// advertised orderbook granularities.
//
// Endpoint: GET /market/data/orderbook
func (c *Client) Orderbook(ctx context.Context, symbol string, depth int, granularity string) (*OrderBook, error) {
	if depth < 1 || depth > 100 {
		return nil, validationError("depth must be between 1 and 100, got %d", depth)
	}
	if !validDecimalString(granularity) {
		return nil, validationError("granularity must be a decimal string, got %q", granularity)
	}

	contract, err := c.getContract(ctx, symbol)
	if err != nil {
		return nil, err
	}
	valid := false
	for _, g := range contract.OrderbookGranularities {
		if g == granularity {
			valid = true
			break
		}
	}
	if !valid {
		return nil, validationError("granularity for symbol %s must be one of %v", symbol, contract.OrderbookGranularities)
	}

	path := fmt.Sprintf("/market/data/orderbook?symbol=%s&depth=%d&granularity=%s",
		url.QueryEscape(symbol), depth, url.QueryEscape(granularity))
	body, err := c.sendSimpleRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Ask struct {
			Levels []OrderBookLevel `json:"levels"`
		} `json:"ask"`
		Bid struct {
			Levels []OrderBookLevel `json:"levels"`
		} `json:"bid"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid orderbook response: %v", err), Cause: err}
	}
	return &OrderBook{Ask: raw.Ask.Levels, Bid: raw.Bid.Levels}, nil
}

/* Capital API endpoints */

// CapitalBalance fetches the account's net equity including unrealized
// PnL.
//
// Endpoint: GET /capital/balance
func (c *Client) CapitalBalance(ctx context.Context) (*CapitalBalance, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/capital/balance?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	var balance CapitalBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid capital balance response: %v", err), Cause: err}
	}
	return &balance, nil
}

// CapitalHistory fetches recent deposits and withdrawals, up to 100 of
// each.
//
// Endpoint: GET /capital/history
func (c *Client) CapitalHistory(ctx context.Context) (*CapitalHistory, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/capital/history?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	var history CapitalHistory
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid capital history response: %v", err), Cause: err}
	}
	return &history, nil
}

// Withdraw submits a signed withdrawal to an external address. quantity
// must not exceed the MaximalWithdraw reported by AccountInfo.
//
// Endpoint: POST /capital/withdraw
func (c *Client) Withdraw(ctx context.Context, coin, withdrawAddress string, quantity, maxFees decimal.Decimal, network string) (*WithdrawResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	if network == "" {
		network = "arbitrum"
	}

	assetID, err := c.assetID(ctx, coin)
	if err != nil {
		return nil, err
	}
	payload, err := withdrawPayload(assetID, quantity, maxFees, withdrawAddress)
	if err != nil {
		return nil, err
	}
	signature, err := c.sign(payload)
	if err != nil {
		return nil, err
	}

	request := WithdrawRequest{
		AccountID:       accountID,
		Coin:            coin,
		WithdrawAddress: withdrawAddress,
		Network:         network,
		Quantity:        fullPrecisionString(quantity),
		MaxFees:         fullPrecisionString(maxFees),
		Signature:       signature,
	}
	body, err := c.sendAuthorizedJSON(ctx, "POST", "/capital/withdraw", request)
	if err != nil {
		return nil, err
	}

	var resp WithdrawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid withdraw response: %v", err), Cause: err}
	}
	return &resp, nil
}

// Transfer moves funds to another account identified by its public key.
//
// Endpoint: POST /capital/transfer
func (c *Client) Transfer(ctx context.Context, coin string, quantity decimal.Decimal, dstPublicKey string, maxFees decimal.Decimal) (*TransferResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	nonce := newNonce()
	assetID, err := c.assetID(ctx, coin)
	if err != nil {
		return nil, err
	}
	payload, err := transferPayload(nonce, assetID, quantity, dstPublicKey, maxFees)
	if err != nil {
		return nil, err
	}
	signature, err := c.sign(payload)
	if err != nil {
		return nil, err
	}

	request := TransferRequest{
		AccountID:    accountID,
		Coin:         coin,
		Nonce:        nonce,
		DstPublicKey: strip0x(dstPublicKey),
		Fees:         fullPrecisionString(maxFees),
		Quantity:     fullPrecisionString(quantity),
		Signature:    signature,
	}
	body, err := c.sendAuthorizedJSON(ctx, "POST", "/capital/transfer", request)
	if err != nil {
		return nil, err
	}

	var resp TransferResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid transfer response: %v", err), Cause: err}
	}
	return &resp, nil
}

// DepositInfo fetches the EVM deposit address for a public key.
//
// Endpoint: GET /capital/deposit-info
func (c *Client) DepositInfo(ctx context.Context, publicKey string) (*DepositInfo, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/capital/deposit-info?accountId=%d&publicKey=%s", accountID, url.QueryEscape(publicKey))
	body, err := c.sendAuthorizedRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var info DepositInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid deposit info response: %v", err), Cause: err}
	}
	return &info, nil
}

/* Trade API endpoints, account id and API key must be set */

// AccountInfo fetches balance, positions, assets, and fee rates for the
// account.
//
// Endpoint: GET /trade/account/info
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/trade/account/info?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	var info AccountInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid account info response: %v", err), Cause: err}
	}
	return &info, nil
}

// AccountTrades fetches the account's recent fills, up to 100.
//
// Endpoint: GET /trade/account/trades
func (c *Client) AccountTrades(ctx context.Context) (*AccountTradesResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/trade/account/trades?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	var trades AccountTradesResponse
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid account trades response: %v", err), Cause: err}
	}
	return &trades, nil
}

// SettlementsHistory fetches settled trades and funding settlements.
//
// Endpoint: GET /trade/account/settlements_history
func (c *Client) SettlementsHistory(ctx context.Context) (*SettlementsResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/trade/account/settlements_history?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	var settlements SettlementsResponse
	if err := json.Unmarshal(body, &settlements); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid settlements response: %v", err), Cause: err}
	}
	return &settlements, nil
}

// PendingOrders fetches all currently active orders.
//
// Endpoint: GET /trade/orders
func (c *Client) PendingOrders(ctx context.Context) (*PendingOrdersResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}
	body, err := c.sendAuthorizedRequest(ctx, "GET", fmt.Sprintf("/trade/orders?accountId=%d", accountID), nil)
	if err != nil {
		return nil, err
	}

	// The endpoint answers with a bare array of orders.
	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid pending orders response: %v", err), Cause: err}
	}
	return &PendingOrdersResponse{Orders: orders}, nil
}

// OrderSelector identifies an order by exactly one of its exchange id or
// its creation nonce.
type OrderSelector struct {
	OrderID *OrderID
	Nonce   *Nonce
}

func (s OrderSelector) validate() error {
	if s.OrderID == nil && s.Nonce == nil {
		return validationError("either OrderID or Nonce must be provided")
	}
	return nil
}

func (s OrderSelector) query() string {
	if s.OrderID != nil {
		return fmt.Sprintf("orderId=%d", *s.OrderID)
	}
	return fmt.Sprintf("nonce=%d", *s.Nonce)
}

// OrderDetails fetches one order by id or creation nonce.
//
// Endpoint: GET /trade/order
func (c *Client) OrderDetails(ctx context.Context, sel OrderSelector) (*Order, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/trade/order?accountId=%d&%s", accountID, sel.query())
	body, err := c.sendAuthorizedRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid order details response: %v", err), Cause: err}
	}
	return &order, nil
}

/* Order endpoints, private key must be set */

// MarketOrderParams are the arguments of PlaceMarketOrder.
type MarketOrderParams struct {
	Symbol           string
	Quantity         decimal.Decimal
	Side             Side
	MaxFeesPercent   decimal.Decimal
	TriggerPrice     *decimal.Decimal
	TWAP             *TWAPConfig
	CreationDeadline *decimal.Decimal
	OrderFlags       *OrderFlags
	TPSL             *TPSLConfig
}

// PlaceMarketOrder submits a market order. TWAP execution excludes trigger
// prices and TPSL legs; orders with TPSL legs are placed as a parent-child
// batch.
//
// Endpoint: POST /trade/order
func (c *Client) PlaceMarketOrder(ctx context.Context, params MarketOrderParams) (*PlacedOrder, error) {
	if params.TWAP != nil && params.TriggerPrice != nil {
		return nil, validationError("can not set trigger price for TWAP order")
	}
	if params.TWAP != nil && params.TPSL != nil {
		return nil, validationError("can not set tpsl for TWAP order")
	}
	if _, err := c.getContract(ctx, params.Symbol); err != nil {
		return nil, err
	}

	create := CreateOrder{
		Symbol:           params.Symbol,
		Side:             params.Side.normalize(),
		Quantity:         params.Quantity,
		MaxFeesPercent:   params.MaxFeesPercent,
		TriggerPrice:     params.TriggerPrice,
		CreationDeadline: params.CreationDeadline,
		TWAP:             params.TWAP,
		OrderFlags:       params.OrderFlags,
	}
	if params.TPSL != nil && len(params.TPSL.Legs) > 0 {
		return c.placeParentWithTPSL(ctx, create, params.TPSL)
	}
	return c.placeOrder(ctx, create)
}

// LimitOrderParams are the arguments of PlaceLimitOrder.
type LimitOrderParams struct {
	Symbol           string
	Quantity         decimal.Decimal
	Price            decimal.Decimal
	Side             Side
	MaxFeesPercent   decimal.Decimal
	TriggerPrice     *decimal.Decimal
	CreationDeadline *decimal.Decimal
	OrderFlags       *OrderFlags
	TPSL             *TPSLConfig
}

// PlaceLimitOrder submits a limit order.
//
// Endpoint: POST /trade/order
func (c *Client) PlaceLimitOrder(ctx context.Context, params LimitOrderParams) (*PlacedOrder, error) {
	if _, err := c.getContract(ctx, params.Symbol); err != nil {
		return nil, err
	}

	price := params.Price
	create := CreateOrder{
		Symbol:           params.Symbol,
		Side:             params.Side.normalize(),
		Quantity:         params.Quantity,
		MaxFeesPercent:   params.MaxFeesPercent,
		Price:            &price,
		TriggerPrice:     params.TriggerPrice,
		CreationDeadline: params.CreationDeadline,
		OrderFlags:       params.OrderFlags,
	}
	if params.TPSL != nil && len(params.TPSL.Legs) > 0 {
		return c.placeParentWithTPSL(ctx, create, params.TPSL)
	}
	return c.placeOrder(ctx, create)
}

// placeOrder signs and submits one order, returning its nonce and id.
func (c *Client) placeOrder(ctx context.Context, create CreateOrder) (*PlacedOrder, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	nonce := newNonce()
	request, err := c.createOrderRequestData(ctx, nonce, create)
	if err != nil {
		return nil, err
	}
	request["accountId"] = accountID

	body, err := c.sendAuthorizedJSON(ctx, "POST", "/trade/order", request)
	if err != nil {
		return nil, err
	}

	var resp struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid order response: %v", err), Cause: err}
	}
	orderID, err := strconv.ParseInt(resp.OrderID, 10, 64)
	if err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid order id %q in response", resp.OrderID), Cause: err}
	}
	return &PlacedOrder{Nonce: nonce, OrderID: orderID}, nil
}

// placeParentWithTPSL submits the parent order and its take-profit and
// stop-loss children as one batch. The parent entry is listed first; each
// entry gets a consecutive nonce.
func (c *Client) placeParentWithTPSL(ctx context.Context, parent CreateOrder, tpsl *TPSLConfig) (*PlacedOrder, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	nonce := newNonce()
	entries := []CreateOrder{parent}
	childSide := SideBid
	if parent.Side.normalize() == SideBid {
		childSide = SideAsk
	}
	for _, leg := range tpsl.Legs {
		trigger := leg.TriggerPrice
		direction := leg.Direction
		entries = append(entries, CreateOrder{
			Symbol:           parent.Symbol,
			Side:             childSide,
			Quantity:         leg.Quantity,
			MaxFeesPercent:   parent.MaxFeesPercent,
			TriggerPrice:     &trigger,
			TriggerDirection: &direction,
		})
	}

	ordersData := make([]map[string]any, 0, len(entries))
	for i, entry := range entries {
		data, err := c.createOrderRequestData(ctx, nonce+int64(i), entry)
		if err != nil {
			return nil, err
		}
		data["action"] = "place"
		ordersData = append(ordersData, data)
	}
	request := map[string]any{
		"accountId": accountID,
		"orders":    ordersData,
	}

	body, err := c.sendAuthorizedJSON(ctx, "POST", "/trade/orders", request)
	if err != nil {
		return nil, err
	}

	var resp BatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid batch response: %v", err), Cause: err}
	}
	if len(resp.Orders) == 0 {
		return nil, &DeserializationError{Message: "batch response contains no orders"}
	}
	parentResult := resp.Orders[0]
	if parentResult.Error != "" {
		return nil, &StatusError{StatusCode: 400, Message: parentResult.Error}
	}
	orderID, err := strconv.ParseInt(parentResult.OrderID, 10, 64)
	if err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid parent order id %q in batch response", parentResult.OrderID), Cause: err}
	}
	return &PlacedOrder{Nonce: nonce, OrderID: orderID}, nil
}

// UpdateOrderParams are the arguments of UpdateOrder. Unset fields are
// inferred from the existing order.
type UpdateOrderParams struct {
	MaxFeesPercent   decimal.Decimal
	Quantity         *decimal.Decimal
	Price            *decimal.Decimal
	TriggerPrice     *decimal.Decimal
	CreationDeadline *decimal.Decimal
}

// UpdateOrder modifies an existing order. The order is fetched first so
// unmodified fields keep their current values; price updates on market
// orders and trigger updates on non-trigger orders are rejected.
//
// Endpoint: PUT /trade/order
func (c *Client) UpdateOrder(ctx context.Context, orderID OrderID, params UpdateOrderParams) (json.RawMessage, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	order, err := c.OrderDetails(ctx, OrderSelector{OrderID: &orderID})
	if err != nil {
		return nil, err
	}

	price := params.Price
	if order.OrderType == OrderTypeMarket && price != nil {
		return nil, validationError("can not update price for a market order")
	}
	if order.OrderType == OrderTypeLimit && price == nil {
		if order.Price == nil {
			return nil, validationError("limit order %d has no price to carry over", orderID)
		}
		p, err := decimal.NewFromString(*order.Price)
		if err != nil {
			return nil, &DeserializationError{Message: fmt.Sprintf("invalid price %q on existing order", *order.Price), Cause: err}
		}
		price = &p
	}

	triggerPrice := params.TriggerPrice
	if order.TriggerPrice == nil && triggerPrice != nil {
		return nil, validationError("cannot update trigger price for a non trigger order")
	}
	if order.TriggerPrice != nil && triggerPrice == nil {
		t, err := decimal.NewFromString(*order.TriggerPrice)
		if err != nil {
			return nil, &DeserializationError{Message: fmt.Sprintf("invalid trigger price %q on existing order", *order.TriggerPrice), Cause: err}
		}
		triggerPrice = &t
	}

	quantity := params.Quantity
	if quantity == nil {
		if order.TotalQuantity == "" {
			return nil, validationError("one of Quantity or the order's total quantity must be defined")
		}
		q, err := decimal.NewFromString(order.TotalQuantity)
		if err != nil {
			return nil, &DeserializationError{Message: fmt.Sprintf("invalid quantity %q on existing order", order.TotalQuantity), Cause: err}
		}
		quantity = &q
	}

	existingID, err := strconv.ParseInt(order.OrderID, 10, 64)
	if err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid order id %q on existing order", order.OrderID), Cause: err}
	}

	request, err := c.updateOrderRequestData(ctx, existingID, newNonce(), order.Symbol, *quantity,
		order.Side.normalize(), params.MaxFeesPercent, price, triggerPrice, params.CreationDeadline, nil)
	if err != nil {
		return nil, err
	}
	request["accountId"] = accountID

	return c.sendAuthorizedJSON(ctx, "PUT", "/trade/order", request)
}

// CancelOrder cancels one order by id or creation nonce.
//
// Endpoint: DELETE /trade/order
func (c *Client) CancelOrder(ctx context.Context, sel OrderSelector) (json.RawMessage, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	request, err := c.cancelOrderRequestData(sel.OrderID, sel.Nonce)
	if err != nil {
		return nil, err
	}
	request["accountId"] = accountID
	return c.sendAuthorizedJSON(ctx, "DELETE", "/trade/order", request)
}

// CancelAllOrders cancels every pending order, one cancel request per
// order.
//
// Endpoint: DELETE /trade/order (per order)
func (c *Client) CancelAllOrders(ctx context.Context) error {
	pending, err := c.PendingOrders(ctx)
	if err != nil {
		return err
	}
	for _, order := range pending.Orders {
		orderID, err := strconv.ParseInt(order.OrderID, 10, 64)
		if err != nil {
			return &DeserializationError{Message: fmt.Sprintf("invalid order id %q on pending order", order.OrderID), Cause: err}
		}
		if _, err := c.CancelOrder(ctx, OrderSelector{OrderID: &orderID}); err != nil {
			return fmt.Errorf("cancel order %d: %w", orderID, err)
		}
	}
	return nil
}

// BatchOperation is one entry of a BatchOrders request: a CreateOrder,
// UpdateOrder, or CancelOrder value.
type BatchOperation interface {
	batchAction() string
}

func (CreateOrder) batchAction() string { return "place" }
func (UpdateOrder) batchAction() string { return "modify" }
func (CancelOrder) batchAction() string { return "cancel" }

// BatchOrders submits multiple order operations in one request. Each entry
// gets a consecutive nonce derived from a single base nonce.
//
// Endpoint: POST /trade/orders
func (c *Client) BatchOrders(ctx context.Context, operations []BatchOperation) (*BatchResponse, error) {
	accountID, err := c.AccountID()
	if err != nil {
		return nil, err
	}

	nonce := newNonce()
	ordersData := make([]map[string]any, 0, len(operations))
	for i, op := range operations {
		var data map[string]any
		switch o := op.(type) {
		case CreateOrder:
			data, err = c.createOrderRequestData(ctx, nonce+int64(i), o)
		case UpdateOrder:
			data, err = c.updateOrderRequestData(ctx, o.OrderID, nonce+int64(i), o.Symbol, o.Quantity,
				o.Side.normalize(), o.MaxFeesPercent, o.Price, o.TriggerPrice, o.CreationDeadline, o.OrderFlags)
		case CancelOrder:
			data, err = c.cancelOrderRequestData(o.OrderID, o.Nonce)
		default:
			return nil, validationError("unexpected batch operation type %T", op)
		}
		if err != nil {
			return nil, err
		}
		data["action"] = op.batchAction()
		ordersData = append(ordersData, data)
	}

	request := map[string]any{
		"accountId": accountID,
		"orders":    ordersData,
	}
	body, err := c.sendAuthorizedJSON(ctx, "POST", "/trade/orders", request)
	if err != nil {
		return nil, err
	}

	var resp BatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Message: fmt.Sprintf("invalid batch response: %v", err), Cause: err}
	}
	return &resp, nil
}

/* request construction */

// createOrderRequestData builds and signs the request body for one order
// creation.
func (c *Client) createOrderRequestData(ctx context.Context, nonce Nonce, o CreateOrder) (map[string]any, error) {
	contract, err := c.getContract(ctx, o.Symbol)
	if err != nil {
		return nil, err
	}
	side := o.Side.normalize()
	payload, err := orderPayload(contract, nonce, o.Quantity, side, o.MaxFeesPercent, o.Price)
	if err != nil {
		return nil, err
	}
	signature, err := c.sign(payload)
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"nonce":          nonce,
		"symbol":         o.Symbol,
		"quantity":       fullPrecisionString(o.Quantity),
		"orderType":      string(OrderTypeMarket),
		"side":           string(side),
		"maxFeesPercent": fullPrecisionString(o.MaxFeesPercent),
		"signature":      signature,
	}
	if o.Price != nil {
		request["orderType"] = string(OrderTypeLimit)
		request["price"] = fullPrecisionString(*o.Price)
	}
	if o.TriggerPrice != nil {
		request["triggerPrice"] = fullPrecisionString(*o.TriggerPrice)
		if o.TriggerDirection != nil {
			request["triggerDirection"] = string(*o.TriggerDirection)
		}
	}
	if o.TWAP != nil {
		request["twapConfig"] = map[string]any{
			"durationMinutes": o.TWAP.DurationMinutes,
			"quantityMode":    string(o.TWAP.QuantityMode),
		}
	}
	if o.CreationDeadline != nil {
		request["creationDeadline"] = absoluteCreationDeadline(*o.CreationDeadline)
	}
	if o.OrderFlags != nil {
		request["orderFlags"] = string(*o.OrderFlags)
	}
	return request, nil
}

// updateOrderRequestData builds and signs the request body for one order
// update.
func (c *Client) updateOrderRequestData(ctx context.Context, orderID OrderID, nonce Nonce, symbol string, quantity decimal.Decimal, side Side, maxFeesPercent decimal.Decimal, price, triggerPrice, creationDeadline *decimal.Decimal, flags *OrderFlags) (map[string]any, error) {
	contract, err := c.getContract(ctx, symbol)
	if err != nil {
		return nil, err
	}
	payload, err := orderPayload(contract, nonce, quantity, side, maxFeesPercent, price)
	if err != nil {
		return nil, err
	}
	signature, err := c.sign(payload)
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"nonce":           nonce,
		"orderId":         strconv.FormatInt(orderID, 10),
		"maxFeesPercent":  fullPrecisionString(maxFeesPercent),
		"signature":       signature,
		"updatedQuantity": fullPrecisionString(quantity),
		"quantity":        fullPrecisionString(quantity),
	}
	if price != nil {
		request["updatedPrice"] = fullPrecisionString(*price)
		request["price"] = fullPrecisionString(*price)
	}
	if triggerPrice != nil {
		request["updatedTriggerPrice"] = fullPrecisionString(*triggerPrice)
		request["triggerPrice"] = fullPrecisionString(*triggerPrice)
	}
	if creationDeadline != nil {
		request["creationDeadline"] = absoluteCreationDeadline(*creationDeadline)
	}
	if flags != nil {
		request["orderFlags"] = string(*flags)
	}
	return request, nil
}

// cancelOrderRequestData builds and signs the request body for one cancel.
func (c *Client) cancelOrderRequestData(orderID *OrderID, nonce *Nonce) (map[string]any, error) {
	payload, err := cancelPayload(orderID, nonce)
	if err != nil {
		return nil, err
	}
	signature, err := c.sign(payload)
	if err != nil {
		return nil, err
	}

	request := map[string]any{"signature": signature}
	if orderID != nil {
		request["orderId"] = strconv.FormatInt(*orderID, 10)
	} else {
		request["nonce"] = strconv.FormatInt(*nonce, 10)
	}
	return request, nil
}

/* private helpers */

func (c *Client) sign(payload []byte) (string, error) {
	if c.signer == nil {
		return "", &MissingCredentialsError{CredentialType: "private key"}
	}
	return c.signer.Sign(payload)
}

func (c *Client) storeContracts(contracts []FutureContract) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contracts = make(map[string]FutureContract, len(contracts))
	for _, contract := range contracts {
		c.contracts[contract.Symbol] = contract
	}
}

// getContract resolves a symbol against the cached contract table, loading
// exchange info on first use.
func (c *Client) getContract(ctx context.Context, symbol string) (*FutureContract, error) {
	c.mu.RLock()
	loaded := c.contracts != nil
	contract, ok := c.contracts[symbol]
	c.mu.RUnlock()

	if !loaded {
		if _, err := c.ExchangeInfo(ctx); err != nil {
			return nil, err
		}
		c.mu.RLock()
		contract, ok = c.contracts[symbol]
		c.mu.RUnlock()
	}
	if !ok {
		return nil, validationError("symbol %q not recognized by exchange. Known symbols: %s", symbol, c.knownSymbols())
	}
	return &contract, nil
}

// assetID resolves a settlement coin to its asset id via the contract
// table.
func (c *Client) assetID(ctx context.Context, coin string) (int64, error) {
	c.mu.RLock()
	loaded := c.contracts != nil
	c.mu.RUnlock()
	if !loaded {
		if _, err := c.ExchangeInfo(ctx); err != nil {
			return 0, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, contract := range c.contracts {
		if contract.SettlementSymbol == coin {
			return contract.ID, nil
		}
	}
	known := make(map[string]struct{})
	for _, contract := range c.contracts {
		known[contract.SettlementSymbol] = struct{}{}
	}
	names := "<none>"
	if len(known) > 0 {
		names = ""
		for k := range known {
			if names != "" {
				names += ", "
			}
			names += k
		}
	}
	return 0, validationError("coin %q not recognized by exchange. Known coins: %s", coin, names)
}

func (c *Client) knownSymbols() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.contracts) == 0 {
		return "<none>"
	}
	out := ""
	for symbol := range c.contracts {
		if out != "" {
			out += ", "
		}
		out += symbol
	}
	return out
}

func (c *Client) sendSimpleRequest(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.executor.SendSimpleRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) sendAuthorizedRequest(ctx context.Context, method, path string, body json.RawMessage) (json.RawMessage, error) {
	resp, err := c.executor.SendAuthorizedRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) sendAuthorizedJSON(ctx context.Context, method, path string, request any) (json.RawMessage, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &SerializationError{Message: fmt.Sprintf("failed to serialize %s %s request: %v", method, path, err), Cause: err}
	}
	return c.sendAuthorizedRequest(ctx, method, path, body)
}

// checkMaintenanceWindow converts a non-NORMAL exchange status into a
// MaintenanceOutageError, carrying the next scheduled window's note when
// one is published.
func checkMaintenanceWindow(status string, windows []MaintenanceWindow) error {
	if status == "" || status == "NORMAL" {
		return nil
	}
	note := ""
	if len(windows) > 0 {
		note = windows[0].Note
	}
	return &MaintenanceOutageError{Status: status, Note: note}
}

func strip0x(s string) string {
	if len(s) >= 2 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}
