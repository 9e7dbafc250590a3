package hibachi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
	"github.com/hibachi-xyz/hibachi-go/hibachi/hibachitest"
)

func newTradeStream(t *testing.T) (*hibachi.WSTradeClient, *hibachitest.MockWSConnection, *hibachitest.MockHTTPExecutor) {
	t.Helper()
	conn := hibachitest.NewMockWSConnection()
	wsExecutor := hibachitest.NewMockWSExecutor()
	wsExecutor.StageConnect(hibachitest.Value(conn))
	httpExecutor := hibachitest.NewMockHTTPExecutor()

	client, err := hibachi.NewWSTradeClient(hibachi.WSTradeConfig{
		AccountID:    1,
		APIKey:       "test-api-key",
		PrivateKey:   "test-hmac-secret",
		Executor:     wsExecutor,
		HTTPExecutor: httpExecutor,
	})
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	return client, conn, httpExecutor
}

// sentMessage decodes the payload of the connection's most recent Send.
func sentMessage(t *testing.T, conn *hibachitest.MockWSConnection) map[string]any {
	t.Helper()
	log := conn.CallLog()
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Op == "Send" {
			var message map[string]any
			require.NoError(t, json.Unmarshal([]byte(log[i].Args[0].(string)), &message))
			return message
		}
	}
	t.Fatal("no Send call recorded")
	return nil
}

func TestWSTradeConnectAuthorization(t *testing.T) {
	t.Parallel()

	conn := hibachitest.NewMockWSConnection()
	wsExecutor := hibachitest.NewMockWSExecutor()
	wsExecutor.StageConnect(hibachitest.Value(conn))
	client, err := hibachi.NewWSTradeClient(hibachi.WSTradeConfig{
		AccountID: 1,
		APIKey:    "test-api-key",
		Executor:  wsExecutor,
	})
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))

	log := wsExecutor.CallLog()
	require.Len(t, log, 1)
	assert.Contains(t, log[0].Args[0].(string), "wss://api.hibachi.xyz/ws/trade?accountId=1")
	header := log[0].Args[1].(http.Header)
	assert.Equal(t, "test-api-key", header.Get("Authorization"))
}

func TestWSTradePlaceOrder(t *testing.T) {
	t.Parallel()

	client, conn, httpExecutor := newTradeStream(t)
	httpExecutor.Stage(hibachitest.Value(loadFixture(t, "exchange_info", 0)))
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":42,"status":200,"result":{"orderId":"77812"}}`))

	placed, err := client.PlaceOrder(context.Background(), hibachi.CreateOrder{
		Symbol:         "BTC/USDT-P",
		Side:           hibachi.SideBuy,
		Quantity:       hibachi.Num("0.01"),
		MaxFeesPercent: hibachi.Num("0.05"),
		Price:          hibachi.NumPtr("63000"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77812), placed.OrderID)
	assert.Positive(t, placed.Nonce)

	message := sentMessage(t, conn)
	assert.Equal(t, "order.place", message["method"])
	assert.NotZero(t, message["id"])
	assert.NotEmpty(t, message["signature"], "signature travels at the top level")
	params := message["params"].(map[string]any)
	assert.Equal(t, "BTC/USDT-P", params["symbol"])
	assert.Equal(t, "BID", params["side"])
	assert.Equal(t, "LIMIT", params["orderType"])
	assert.Equal(t, float64(1), params["accountId"])
	assert.Zero(t, conn.Unconsumed())
}

func TestWSTradeCancelOrder(t *testing.T) {
	t.Parallel()

	client, conn, _ := newTradeStream(t)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":43,"status":200}`))

	orderID := int64(77810)
	response, err := client.CancelOrder(context.Background(), hibachi.OrderSelector{OrderID: &orderID})
	require.NoError(t, err)
	assert.Equal(t, 200, response.Status)

	message := sentMessage(t, conn)
	assert.Equal(t, "order.cancel", message["method"])
	params := message["params"].(map[string]any)
	assert.Equal(t, "77810", params["orderId"])
	assert.NotEmpty(t, message["signature"])
}

func TestWSTradeCancelOrderRequiresSelector(t *testing.T) {
	t.Parallel()

	client, _, _ := newTradeStream(t)
	_, err := client.CancelOrder(context.Background(), hibachi.OrderSelector{})
	require.ErrorIs(t, err, hibachi.ErrValidation)
}

func TestWSTradeOrderStatus(t *testing.T) {
	t.Parallel()

	client, conn, _ := newTradeStream(t)
	orderBody, err := json.Marshal(map[string]any{
		"orderId": "77810", "symbol": "BTC/USDT-P", "orderType": "LIMIT",
		"side": "BID", "status": "PLACED", "totalQuantity": "0.01",
		"availableQuantity": "0.01", "price": "63000.0",
	})
	require.NoError(t, err)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":44,"status":200,"result":` + string(orderBody) + `}`))

	order, err := client.OrderStatus(context.Background(), 77810)
	require.NoError(t, err)
	assert.Equal(t, "77810", order.OrderID)
	assert.Equal(t, hibachi.OrderTypeLimit, order.OrderType)

	message := sentMessage(t, conn)
	assert.Equal(t, "order.status", message["method"])
	_, hasSignature := message["signature"]
	assert.False(t, hasSignature, "status queries are unsigned")
}

func TestWSTradeOrdersStatus(t *testing.T) {
	t.Parallel()

	client, conn, _ := newTradeStream(t)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":45,"status":200,"result":[{"orderId":"77810"},{"orderId":"77811"}]}`))

	orders, err := client.OrdersStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "77811", orders[1].OrderID)
}

func TestWSTradeCancelAllOrders(t *testing.T) {
	t.Parallel()

	client, conn, _ := newTradeStream(t)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":46,"status":200}`))

	acked, err := client.CancelAllOrders(context.Background())
	require.NoError(t, err)
	assert.True(t, acked)

	message := sentMessage(t, conn)
	assert.Equal(t, "orders.cancel", message["method"])
	assert.NotEmpty(t, message["signature"])
	params := message["params"].(map[string]any)
	assert.NotZero(t, params["nonce"])
}

func TestWSTradeModifyOrderError(t *testing.T) {
	t.Parallel()

	client, conn, httpExecutor := newTradeStream(t)
	httpExecutor.Stage(hibachitest.Value(loadFixture(t, "exchange_info", 0)))
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":47,"status":400,"error":{"code":400,"message":"order already filled"}}`))

	order := &hibachi.Order{OrderID: "77810", Symbol: "BTC/USDT-P", OrderType: hibachi.OrderTypeLimit}
	_, err := client.ModifyOrder(context.Background(), order,
		hibachi.Num("0.02"), hibachi.Num("63500"), hibachi.SideBuy, hibachi.Num("0.05"))
	var statusErr *hibachi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Contains(t, statusErr.Message, "order already filled")

	message := sentMessage(t, conn)
	assert.Equal(t, "order.modify", message["method"])
	params := message["params"].(map[string]any)
	_, hasSignature := params["signature"]
	assert.False(t, hasSignature, "signature is lifted out of params")
	assert.NotEmpty(t, message["signature"])
}

func TestWSTradeBatchOrders(t *testing.T) {
	t.Parallel()

	client, conn, httpExecutor := newTradeStream(t)
	httpExecutor.Stage(hibachitest.Value(loadFixture(t, "exchange_info", 0)))
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":48,"status":200,"result":{"orders":[{"action":"place","orderId":"77813"}]}}`))

	cancelID := int64(77810)
	response, err := client.BatchOrders(context.Background(), []hibachi.BatchOperation{
		hibachi.CreateOrder{
			Symbol:         "BTC/USDT-P",
			Side:           hibachi.SideBuy,
			Quantity:       hibachi.Num("0.01"),
			MaxFeesPercent: hibachi.Num("0.05"),
			Price:          hibachi.NumPtr("63000"),
		},
		hibachi.CancelOrder{OrderID: &cancelID},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, response.Status)

	message := sentMessage(t, conn)
	assert.Equal(t, "orders.batch", message["method"])
	orders := message["params"].(map[string]any)["orders"].([]any)
	require.Len(t, orders, 2)
	assert.Equal(t, "place", orders[0].(map[string]any)["action"])
	assert.Equal(t, "cancel", orders[1].(map[string]any)["action"])
}

func TestWSTradeEnableCancelOnDisconnect(t *testing.T) {
	t.Parallel()

	client, conn, _ := newTradeStream(t)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":49,"status":200}`))

	response, err := client.EnableCancelOnDisconnect(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 200, response.Status)

	message := sentMessage(t, conn)
	assert.Equal(t, "orders.enableCancelOnDisconnect", message["method"])
	params := message["params"].(map[string]any)
	assert.Equal(t, float64(30), params["timeoutWindow"])
}

func TestWSTradeRequiresConnect(t *testing.T) {
	t.Parallel()

	client, err := hibachi.NewWSTradeClient(hibachi.WSTradeConfig{
		AccountID: 1,
		Executor:  hibachitest.NewMockWSExecutor(),
	})
	require.NoError(t, err)

	_, err = client.OrderStatus(context.Background(), 77810)
	require.ErrorIs(t, err, hibachi.ErrValidation)
}
