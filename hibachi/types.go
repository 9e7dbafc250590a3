package hibachi

import (
	"github.com/shopspring/decimal"
)

// Nonce identifies an order creation request. The SDK generates nonces from
// the current epoch time in microseconds.
type Nonce = int64

// OrderID is the exchange-assigned order identifier.
type OrderID = int64

// Interval is a candlestick interval accepted by the klines endpoint.
type Interval string

const (
	Interval1Minute   Interval = "1m"
	Interval5Minutes  Interval = "5m"
	Interval15Minutes Interval = "15m"
	Interval30Minutes Interval = "30m"
	Interval1Hour     Interval = "1h"
	Interval4Hours    Interval = "4h"
	Interval1Day      Interval = "1d"
	Interval1Week     Interval = "1w"
)

// Side is an order side. BUY and SELL are accepted as synonyms and
// normalized to BID and ASK before anything is sent to the exchange.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideBid  Side = "BID"
	SideAsk  Side = "ASK"
)

// normalize maps the BUY/SELL synonyms onto the wire values BID/ASK.
func (s Side) normalize() Side {
	switch s {
	case SideBuy:
		return SideBid
	case SideSell:
		return SideAsk
	}
	return s
}

// OrderType distinguishes market from limit orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus is the lifecycle state of an order as reported by the
// exchange.
type OrderStatus string

const (
	OrderStatusPlaced          OrderStatus = "PLACED"
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// OrderFlags carries optional order behavior modifiers.
type OrderFlags string

// OrderFlagPostOnly rejects the order instead of letting it cross the book.
const OrderFlagPostOnly OrderFlags = "POST_ONLY"

// TriggerDirection controls which way the mark price must move through the
// trigger price to activate a conditional order.
type TriggerDirection string

const (
	TriggerDirectionUp   TriggerDirection = "UP"
	TriggerDirectionDown TriggerDirection = "DOWN"
)

// TakerSide reports which side was the aggressor in a public trade.
type TakerSide string

const (
	TakerSideBuy  TakerSide = "Buy"
	TakerSideSell TakerSide = "Sell"
)

// TWAPQuantityMode selects how a TWAP order's quantity is interpreted.
type TWAPQuantityMode string

const (
	TWAPQuantityModeFixed      TWAPQuantityMode = "FIXED"
	TWAPQuantityModePercentage TWAPQuantityMode = "PERCENTAGE"
)

// TWAPConfig configures time-weighted average price execution.
type TWAPConfig struct {
	DurationMinutes int
	QuantityMode    TWAPQuantityMode
}

// SubscriptionTopic is a market data stream topic.
type SubscriptionTopic string

const (
	TopicMarkPrice    SubscriptionTopic = "mark_price"
	TopicSpotPrice    SubscriptionTopic = "spot_price"
	TopicFundingRate  SubscriptionTopic = "funding_rate_estimation"
	TopicTrades       SubscriptionTopic = "trades"
	TopicKlines       SubscriptionTopic = "klines"
	TopicOrderbook    SubscriptionTopic = "orderbook"
	TopicAskBidPrice  SubscriptionTopic = "ask_bid_price"
	TopicOpenInterest SubscriptionTopic = "open_interest"
)

// Subscription names one market data stream: a symbol plus a topic.
type Subscription struct {
	Symbol string            `json:"symbol"`
	Topic  SubscriptionTopic `json:"topic"`
}

// FeeConfig is the exchange-wide fee schedule.
type FeeConfig struct {
	DepositFees                 string `json:"depositFees"`
	InstantWithdrawDstPublicKey string `json:"instantWithdrawDstPublicKey"`
	InstantWithdrawalFees       []any  `json:"instantWithdrawalFees"`
	TradeMakerFeeRate           string `json:"tradeMakerFeeRate"`
	TradeTakerFeeRate           string `json:"tradeTakerFeeRate"`
	TransferFeeRate             string `json:"transferFeeRate"`
	WithdrawalFees              string `json:"withdrawalFees"`
}

// FutureContract is the exchange metadata for one perpetual contract.
type FutureContract struct {
	ID                      int64    `json:"id"`
	DisplayName             string   `json:"displayName"`
	Symbol                  string   `json:"symbol"`
	Status                  string   `json:"status"`
	StepSize                string   `json:"stepSize"`
	TickSize                string   `json:"tickSize"`
	InitialMarginRate       string   `json:"initialMarginRate"`
	MaintenanceMarginRate   string   `json:"maintenanceMarginRate"`
	MarketCloseTimestamp    *string  `json:"marketCloseTimestamp"`
	MarketCreationTimestamp *string  `json:"marketCreationTimestamp"`
	MarketOpenTimestamp     *string  `json:"marketOpenTimestamp"`
	MinNotional             string   `json:"minNotional"`
	MinOrderSize            string   `json:"minOrderSize"`
	OrderbookGranularities  []string `json:"orderbookGranularities"`
	SettlementDecimals      int32    `json:"settlementDecimals"`
	SettlementSymbol        string   `json:"settlementSymbol"`
	UnderlyingDecimals      int32    `json:"underlyingDecimals"`
	UnderlyingSymbol        string   `json:"underlyingSymbol"`
}

// WithdrawalLimit bounds instant withdrawals.
type WithdrawalLimit struct {
	LowerLimit string `json:"lowerLimit"`
	UpperLimit string `json:"upperLimit"`
}

// MaintenanceWindow is a scheduled exchange downtime interval.
type MaintenanceWindow struct {
	Begin int64  `json:"begin"`
	End   int64  `json:"end"`
	Note  string `json:"note"`
}

// ExchangeInfo is the response of GET /market/exchange-info.
type ExchangeInfo struct {
	FeeConfig              FeeConfig           `json:"feeConfig"`
	FutureContracts        []FutureContract    `json:"futureContracts"`
	InstantWithdrawalLimit WithdrawalLimit     `json:"instantWithdrawalLimit"`
	MaintenanceWindow      []MaintenanceWindow `json:"maintenanceWindow"`
	Status                 string              `json:"status"`
}

// CrossChainAsset describes an asset bridged from another chain.
type CrossChainAsset struct {
	Chain                             string `json:"chain"`
	ExchangeRateFromUSDT              string `json:"exchangeRateFromUSDT"`
	ExchangeRateToUSDT                string `json:"exchangeRateToUSDT"`
	InstantWithdrawalLowerLimitInUSDT string `json:"instantWithdrawalLowerLimitInUSDT"`
	InstantWithdrawalUpperLimitInUSDT string `json:"instantWithdrawalUpperLimitInUSDT"`
	Token                             string `json:"token"`
}

// TradingTier is one fee tier.
type TradingTier struct {
	Level          int64  `json:"level"`
	LowerThreshold string `json:"lowerThreshold"`
	UpperThreshold string `json:"upperThreshold"`
	Title          string `json:"title"`
}

// MarketInfo carries the latest price data for one market.
type MarketInfo struct {
	Category    string   `json:"category"`
	MarkPrice   string   `json:"markPrice"`
	Price24hAgo string   `json:"price24hAgo"`
	PriceLatest string   `json:"priceLatest"`
	Tags        []string `json:"tags"`
}

// Market pairs contract metadata with its latest market info.
type Market struct {
	Contract FutureContract `json:"contract"`
	Info     MarketInfo     `json:"info"`
}

// InventoryResponse is the response of GET /market/inventory.
type InventoryResponse struct {
	CrossChainAssets []CrossChainAsset `json:"crossChainAssets"`
	FeeConfig        FeeConfig         `json:"feeConfig"`
	Markets          []Market          `json:"markets"`
	TradingTiers     []TradingTier     `json:"tradingTiers"`
}

// FundingRateEstimation is the predicted next funding rate.
type FundingRateEstimation struct {
	EstimatedFundingRate string `json:"estimatedFundingRate"`
	NextFundingTimestamp int64  `json:"nextFundingTimestamp"`
}

// PriceResponse is the response of GET /market/data/prices.
type PriceResponse struct {
	AskPrice              string                `json:"askPrice"`
	BidPrice              string                `json:"bidPrice"`
	FundingRateEstimation FundingRateEstimation `json:"fundingRateEstimation"`
	MarkPrice             string                `json:"markPrice"`
	SpotPrice             string                `json:"spotPrice"`
	Symbol                string                `json:"symbol"`
	TradePrice            string                `json:"tradePrice"`
}

// StatsResponse is the response of GET /market/data/stats.
type StatsResponse struct {
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	Symbol    string `json:"symbol"`
	Volume24h string `json:"volume24h"`
}

// Trade is one public trade.
type Trade struct {
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	TakerSide TakerSide `json:"takerSide"`
	Timestamp int64     `json:"timestamp"`
}

// TradesResponse is the response of GET /market/data/trades.
type TradesResponse struct {
	Trades []Trade `json:"trades"`
}

// Kline is one candlestick.
type Kline struct {
	Close            string `json:"close"`
	High             string `json:"high"`
	InterpolatedOpen string `json:"interpolatedOpen"`
	Low              string `json:"low"`
	Open             string `json:"open"`
	Timestamp        int64  `json:"timestamp"`
	VolumeNotional   string `json:"volumeNotional"`
}

// KlinesResponse is the response of GET /market/data/klines.
type KlinesResponse struct {
	Klines []Kline `json:"klines"`
}

// OpenInterestResponse is the response of GET /market/data/open-interest.
type OpenInterestResponse struct {
	TotalQuantity string `json:"totalQuantity"`
}

// OrderBookLevel is one aggregated price level.
type OrderBookLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// OrderBook holds the aggregated bid and ask levels of one symbol.
type OrderBook struct {
	Ask []OrderBookLevel
	Bid []OrderBookLevel
}

// Asset is one settled balance entry on an account.
type Asset struct {
	Quantity string `json:"quantity"`
	Symbol   string `json:"symbol"`
}

// Position is one open position on an account.
type Position struct {
	Direction            string `json:"direction"`
	EntryNotional        string `json:"entryNotional"`
	MarkPrice            string `json:"markPrice"`
	NotionalValue        string `json:"notionalValue"`
	OpenPrice            string `json:"openPrice"`
	Quantity             string `json:"quantity"`
	Symbol               string `json:"symbol"`
	UnrealizedFundingPnl string `json:"unrealizedFundingPnl"`
	UnrealizedTradingPnl string `json:"unrealizedTradingPnl"`
}

// AccountInfo is the response of GET /trade/account/info.
type AccountInfo struct {
	Assets                    []Asset    `json:"assets"`
	Balance                   string     `json:"balance"`
	MaximalWithdraw           string     `json:"maximalWithdraw"`
	NumFreeTransfersRemaining int64      `json:"numFreeTransfersRemaining"`
	Positions                 []Position `json:"positions"`
	TotalOrderNotional        string     `json:"totalOrderNotional"`
	TotalPositionNotional     string     `json:"totalPositionNotional"`
	TotalUnrealizedFundingPnl string     `json:"totalUnrealizedFundingPnl"`
	TotalUnrealizedPnl        string     `json:"totalUnrealizedPnl"`
	TotalUnrealizedTradingPnl string     `json:"totalUnrealizedTradingPnl"`
	TradeMakerFeeRate         string     `json:"tradeMakerFeeRate"`
	TradeTakerFeeRate         string     `json:"tradeTakerFeeRate"`
}

// AccountSnapshot is the initial account state sent when an account stream
// starts.
type AccountSnapshot struct {
	AccountID int64      `json:"account_id"`
	Balance   string     `json:"balance"`
	Positions []Position `json:"positions"`
}

// AccountTrade is one fill on the account's trade history.
type AccountTrade struct {
	AskAccountID int64  `json:"askAccountId"`
	AskOrderID   int64  `json:"askOrderId"`
	BidAccountID int64  `json:"bidAccountId"`
	BidOrderID   int64  `json:"bidOrderId"`
	Fee          string `json:"fee"`
	ID           int64  `json:"id"`
	OrderType    string `json:"orderType"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	RealizedPnl  string `json:"realizedPnl"`
	Side         string `json:"side"`
	Symbol       string `json:"symbol"`
	Timestamp    int64  `json:"timestamp"`
}

// AccountTradesResponse is the response of GET /trade/account/trades.
type AccountTradesResponse struct {
	Trades []AccountTrade `json:"trades"`
}

// Settlement is one settled trade or funding event.
type Settlement struct {
	Direction     string `json:"direction"`
	IndexPrice    string `json:"indexPrice"`
	Quantity      string `json:"quantity"`
	SettledAmount string `json:"settledAmount"`
	Symbol        string `json:"symbol"`
	Timestamp     int64  `json:"timestamp"`
}

// SettlementsResponse is the response of GET /trade/account/settlements_history.
type SettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

// Order is the exchange's view of one order.
type Order struct {
	AccountID          int64             `json:"accountId"`
	AvailableQuantity  string            `json:"availableQuantity"`
	ContractID         int64             `json:"contractId"`
	CreationTime       int64             `json:"creationTime"`
	FinishTime         *int64            `json:"finishTime"`
	NumOrdersRemaining *int64            `json:"numOrdersRemaining"`
	NumOrdersTotal     *int64            `json:"numOrdersTotal"`
	OrderID            string            `json:"orderId"`
	OrderType          OrderType         `json:"orderType"`
	Price              *string           `json:"price"`
	Side               Side              `json:"side"`
	Status             OrderStatus       `json:"status"`
	Symbol             string            `json:"symbol"`
	TotalQuantity      string            `json:"totalQuantity"`
	TriggerPrice       *string           `json:"triggerPrice"`
	OrderFlags         *OrderFlags       `json:"orderFlags"`
	TriggerDirection   *TriggerDirection `json:"triggerDirection"`
}

// PendingOrdersResponse is the response of GET /trade/orders.
type PendingOrdersResponse struct {
	Orders []Order `json:"orders"`
}

// CapitalBalance is the response of GET /capital/balance.
type CapitalBalance struct {
	Balance string `json:"balance"`
}

// Transaction is one deposit or withdrawal on the capital history.
type Transaction struct {
	AssetID           int64  `json:"assetId"`
	BlockNumber       int64  `json:"blockNumber"`
	Chain             string `json:"chain"`
	EtaTsSec          int64  `json:"etaTsSec"`
	ID                int64  `json:"id"`
	Quantity          string `json:"quantity"`
	Status            string `json:"status"`
	Timestamp         int64  `json:"timestamp"`
	Token             string `json:"token"`
	TransactionHash   string `json:"transactionHash"`
	TransactionType   string `json:"transactionType"`
	WithdrawalAddress string `json:"withdrawalAddress"`
}

// CapitalHistory is the response of GET /capital/history.
type CapitalHistory struct {
	Transactions []Transaction `json:"transactions"`
}

// WithdrawRequest is the signed request body of POST /capital/withdraw.
type WithdrawRequest struct {
	AccountID       int64  `json:"accountId"`
	Coin            string `json:"coin"`
	WithdrawAddress string `json:"withdrawAddress"`
	Network         string `json:"network"`
	Quantity        string `json:"quantity"`
	MaxFees         string `json:"maxFees"`
	Signature       string `json:"signature"`
}

// WithdrawResponse is the response of POST /capital/withdraw.
type WithdrawResponse struct {
	OrderID string `json:"orderId"`
}

// TransferRequest is the signed request body of POST /capital/transfer.
type TransferRequest struct {
	AccountID    int64  `json:"accountId"`
	Coin         string `json:"coin"`
	Nonce        int64  `json:"nonce"`
	DstPublicKey string `json:"dstPublicKey"`
	Fees         string `json:"fees"`
	Quantity     string `json:"quantity"`
	Signature    string `json:"signature"`
}

// TransferResponse is the response of POST /capital/transfer.
type TransferResponse struct {
	Status string `json:"status"`
}

// DepositInfo is the response of GET /capital/deposit-info.
type DepositInfo struct {
	DepositAddressEvm string `json:"depositAddressEvm"`
}

// TPSLLeg is one take-profit or stop-loss child order attached to a parent
// order.
type TPSLLeg struct {
	TriggerPrice decimal.Decimal
	Quantity     decimal.Decimal
	Direction    TriggerDirection
}

// TPSLConfig attaches take-profit/stop-loss child orders to a parent order.
type TPSLConfig struct {
	Legs []TPSLLeg
}

// CreateOrder is one create operation inside a batch request.
type CreateOrder struct {
	Symbol           string
	Side             Side
	Quantity         decimal.Decimal
	MaxFeesPercent   decimal.Decimal
	Price            *decimal.Decimal
	TriggerPrice     *decimal.Decimal
	TriggerDirection *TriggerDirection
	CreationDeadline *decimal.Decimal
	TWAP             *TWAPConfig
	OrderFlags       *OrderFlags
}

// UpdateOrder is one update operation inside a batch request. Unlike
// Client.UpdateOrder, every relevant field must be provided explicitly.
type UpdateOrder struct {
	OrderID          OrderID
	Symbol           string
	Side             Side
	Quantity         decimal.Decimal
	MaxFeesPercent   decimal.Decimal
	Price            *decimal.Decimal
	TriggerPrice     *decimal.Decimal
	CreationDeadline *decimal.Decimal
	OrderFlags       *OrderFlags
}

// CancelOrder is one cancel operation inside a batch request. Exactly one
// of OrderID or Nonce selects the order.
type CancelOrder struct {
	OrderID *OrderID
	Nonce   *Nonce
}

// BatchOrderResult is the per-entry outcome of a batch request. Exactly one
// of the pointer groups is populated depending on the entry's action.
type BatchOrderResult struct {
	Action  string `json:"action"`
	Nonce   *int64 `json:"nonce,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResponse is the response of POST /trade/orders.
type BatchResponse struct {
	Orders []BatchOrderResult `json:"orders"`
}

// PlacedOrder is the (nonce, orderId) pair returned by order placement.
type PlacedOrder struct {
	Nonce   Nonce
	OrderID OrderID
}
