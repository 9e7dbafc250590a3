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

const streamStartReply = `{
	"id": 1,
	"status": 200,
	"result": {
		"accountSnapshot": {
			"account_id": 1,
			"balance": "10250.771382",
			"positions": [{"symbol": "BTC/USDT-P", "quantity": "0.01", "direction": "Long"}]
		},
		"listenKey": "lk-8f2f2a6c"
	}
}`

func newAccountStream(t *testing.T) (*hibachi.WSAccountClient, *hibachitest.MockWSConnection, *hibachitest.MockWSExecutor) {
	t.Helper()
	conn := hibachitest.NewMockWSConnection()
	executor := hibachitest.NewMockWSExecutor()
	executor.StageConnect(hibachitest.Value(conn))
	client := hibachi.NewWSAccountClient(hibachi.WSAccountConfig{
		AccountID: 1,
		APIKey:    "test-api-key",
		Executor:  executor,
	})
	require.NoError(t, client.Connect(context.Background()))
	return client, conn, executor
}

// startStream runs StreamStart against a staged reply so later calls have a
// listen key.
func startStream(t *testing.T, client *hibachi.WSAccountClient, conn *hibachitest.MockWSConnection) {
	t.Helper()
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(streamStartReply))
	_, err := client.StreamStart(context.Background())
	require.NoError(t, err)
}

func TestWSAccountConnect(t *testing.T) {
	t.Parallel()

	_, _, executor := newAccountStream(t)

	log := executor.CallLog()
	require.Len(t, log, 1)
	addr := log[0].Args[0].(string)
	assert.Contains(t, addr, "wss://api.hibachi.xyz/ws/account?accountId=1")
	header := log[0].Args[1].(http.Header)
	assert.Equal(t, "test-api-key", header.Get("Authorization"))
}

func TestWSAccountStreamStart(t *testing.T) {
	t.Parallel()

	client, conn, _ := newAccountStream(t)
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(streamStartReply))

	result, err := client.StreamStart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lk-8f2f2a6c", result.ListenKey)
	assert.Equal(t, "10250.771382", result.AccountSnapshot.Balance)
	require.Len(t, result.AccountSnapshot.Positions, 1)

	log := conn.CallLog()
	require.Len(t, log, 2)
	require.Equal(t, "Send", log[0].Op)

	var sent struct {
		ID     int64          `json:"id"`
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(log[0].Args[0].(string)), &sent))
	assert.Equal(t, int64(1), sent.ID)
	assert.Equal(t, "stream.start", sent.Method)
	assert.Equal(t, float64(1), sent.Params["accountId"])
	assert.Zero(t, conn.Unconsumed())
}

func TestWSAccountPing(t *testing.T) {
	t.Parallel()

	client, conn, _ := newAccountStream(t)
	startStream(t, client, conn)

	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":2,"status":200}`))
	require.NoError(t, client.Ping(context.Background()))

	var sent struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	log := conn.CallLog()
	require.NoError(t, json.Unmarshal([]byte(log[2].Args[0].(string)), &sent))
	assert.Equal(t, "stream.ping", sent.Method)
	assert.Equal(t, "lk-8f2f2a6c", sent.Params["listenKey"])
}

func TestWSAccountPingRequiresStream(t *testing.T) {
	t.Parallel()

	client, _, _ := newAccountStream(t)
	err := client.Ping(context.Background())
	require.ErrorIs(t, err, hibachi.ErrValidation)
	assert.Contains(t, err.Error(), "listen key not initialized")
}

func TestWSAccountListenDispatch(t *testing.T) {
	t.Parallel()

	client, conn, _ := newAccountStream(t)
	balanceUpdate := `{"topic":"balance","balance":"10300.12"}`
	conn.StageRecv(hibachitest.Value(balanceUpdate))

	var seen []json.RawMessage
	client.On("balance", func(m json.RawMessage) { seen = append(seen, m) })

	message, err := client.Listen(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, balanceUpdate, string(message))
	require.Len(t, seen, 1)
}

func TestWSAccountListenTimeoutPings(t *testing.T) {
	t.Parallel()

	client, conn, _ := newAccountStream(t)
	startStream(t, client, conn)

	// A read deadline expiry inside Listen triggers a keepalive instead of
	// surfacing an error.
	conn.StageRecv(hibachitest.Err(context.DeadlineExceeded))
	conn.Stage(hibachitest.Value(nil))
	conn.StageRecv(hibachitest.Value(`{"id":2,"status":200}`))

	message, err := client.Listen(context.Background())
	require.NoError(t, err)
	assert.Nil(t, message)

	var sent struct {
		Method string `json:"method"`
	}
	log := conn.CallLog()
	require.NoError(t, json.Unmarshal([]byte(log[len(log)-2].Args[0].(string)), &sent))
	assert.Equal(t, "stream.ping", sent.Method)
	assert.Zero(t, conn.Unconsumed())
}

func TestWSAccountDisconnectResetsStream(t *testing.T) {
	t.Parallel()

	client, conn, _ := newAccountStream(t)
	startStream(t, client, conn)

	conn.Stage(hibachitest.Value(nil))
	require.NoError(t, client.Disconnect())

	err := client.Ping(context.Background())
	require.ErrorIs(t, err, hibachi.ErrValidation)
	assert.Contains(t, err.Error(), "call Connect first")
}
