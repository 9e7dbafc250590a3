package hibachitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
)

func jsonResponse(t *testing.T, status int, body string) *hibachi.HTTPResponse {
	t.Helper()
	return &hibachi.HTTPResponse{Status: status, Body: json.RawMessage(body)}
}

func TestMockHTTPExecutorConsumesInStagedOrder(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPExecutor()
	first := jsonResponse(t, 200, `{"balance":"100"}`)
	second := jsonResponse(t, 200, `{"balance":"200"}`)
	mock.Stage(Value(first), Value(second))

	got, err := mock.SendSimpleRequest(context.Background(), "/capital/balance")
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = mock.SendSimpleRequest(context.Background(), "/capital/balance")
	require.NoError(t, err)
	assert.Same(t, second, got)

	_, err = mock.SendSimpleRequest(context.Background(), "/capital/balance")
	var unstaged *UnstagedCallError
	require.ErrorAs(t, err, &unstaged)
	assert.Equal(t, "SendSimpleRequest", unstaged.Op)
}

func TestMockHTTPExecutorReturnsStagedErrorUnchanged(t *testing.T) {
	t.Parallel()

	staged := &hibachi.TimeoutError{Message: "request timed out"}
	mock := NewMockHTTPExecutor()
	mock.Stage(Err(staged))

	_, err := mock.SendAuthorizedRequest(context.Background(), "POST", "/trade/order", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Same(t, staged, err.(*hibachi.TimeoutError))
}

func TestMockHTTPExecutorLogsEveryCall(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPExecutor()
	mock.Stage(Value(jsonResponse(t, 200, `{}`)))

	body := json.RawMessage(`{"accountId":1}`)
	_, err := mock.SendAuthorizedRequest(context.Background(), "POST", "/trade/order", body)
	require.NoError(t, err)

	// The failing call must be logged too.
	_, err = mock.SendSimpleRequest(context.Background(), "/market/inventory")
	require.Error(t, err)

	log := mock.CallLog()
	require.Len(t, log, 2)
	assert.Equal(t, Call{Op: "SendAuthorizedRequest", Args: []any{"POST", "/trade/order", body}}, log[0])
	assert.Equal(t, Call{Op: "SendSimpleRequest", Args: []any{"/market/inventory"}}, log[1])
}

func TestMockHTTPExecutorGetScenario(t *testing.T) {
	t.Parallel()

	resp := jsonResponse(t, 200, `{"balance":100}`)
	mock := NewMockHTTPExecutor()
	mock.Stage(Value(resp))

	got, err := mock.SendSimpleRequest(context.Background(), "/capital/balance")
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	log := mock.CallLog()
	require.Len(t, log, 1)
	assert.Equal(t, "SendSimpleRequest", log[0].Op)
	assert.Equal(t, []any{"/capital/balance"}, log[0].Args)
	assert.Zero(t, mock.Unconsumed())
}

func TestMockHTTPExecutorRejectsWrongStagedType(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPExecutor()
	mock.Stage(Value("not a response"))

	_, err := mock.SendSimpleRequest(context.Background(), "/market/inventory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want *hibachi.HTTPResponse")
}

func TestMockHTTPExecutorAPIKey(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPExecutor()
	assert.Empty(t, mock.APIKey())
	mock.SetAPIKey("test-key")
	assert.Equal(t, "test-key", mock.APIKey())
}

func TestMockWSConnectionRecvFIFO(t *testing.T) {
	t.Parallel()

	conn := NewMockWSConnection()
	conn.StageRecv(Value("a"), Value("b"))

	got, err := conn.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = conn.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	_, err = conn.Recv(context.Background())
	var unstaged *UnstagedRecvError
	require.ErrorAs(t, err, &unstaged)
}

func TestMockWSConnectionRecvStagedError(t *testing.T) {
	t.Parallel()

	staged := &hibachi.WSConnectionError{Message: "connection reset"}
	conn := NewMockWSConnection()
	conn.StageRecv(Value("first"), Err(staged))

	got, err := conn.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	_, err = conn.Recv(context.Background())
	require.Error(t, err)
	assert.Same(t, staged, err.(*hibachi.WSConnectionError))
}

func TestMockWSConnectionLifecycleQueue(t *testing.T) {
	t.Parallel()

	staged := &hibachi.WSConnectionError{Message: "timeout"}
	conn := NewMockWSConnection()
	conn.Stage(Value(nil), Err(staged))

	require.NoError(t, conn.Send(context.Background(), `{"method":"subscribe"}`))

	err := conn.Send(context.Background(), `{"method":"unsubscribe"}`)
	require.Error(t, err)
	assert.Same(t, staged, err.(*hibachi.WSConnectionError))

	// Both attempts are logged, the failed one included.
	log := conn.CallLog()
	require.Len(t, log, 2)
	assert.Equal(t, Call{Op: "Send", Args: []any{`{"method":"subscribe"}`}}, log[0])
	assert.Equal(t, Call{Op: "Send", Args: []any{`{"method":"unsubscribe"}`}}, log[1])
}

func TestMockWSConnectionUnstagedSendFails(t *testing.T) {
	t.Parallel()

	conn := NewMockWSConnection()
	err := conn.Send(context.Background(), "hello")
	var unstaged *UnstagedCallError
	require.ErrorAs(t, err, &unstaged)
	assert.Equal(t, "Send", unstaged.Op)
}

func TestMockWSConnectionClose(t *testing.T) {
	t.Parallel()

	conn := NewMockWSConnection()
	conn.Stage(Value(nil))
	require.NoError(t, conn.Close())

	log := conn.CallLog()
	require.Len(t, log, 1)
	assert.Equal(t, "Close", log[0].Op)
}

func TestMockWSConnectionsAreIndependent(t *testing.T) {
	t.Parallel()

	executor := NewMockWSExecutor()
	first, err := executor.Connect(context.Background(), "wss://example/ws/market", nil)
	require.NoError(t, err)
	second, err := executor.Connect(context.Background(), "wss://example/ws/market", nil)
	require.NoError(t, err)

	a := first.(*MockWSConnection)
	b := second.(*MockWSConnection)
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID, b.ID)

	// Staging on one never satisfies consumption on the other.
	a.StageRecv(Value("only for a"))
	_, err = b.Recv(context.Background())
	var unstaged *UnstagedRecvError
	require.ErrorAs(t, err, &unstaged)

	got, err := a.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only for a", got)
}

func TestMockWSExecutorLogsConnectAttempts(t *testing.T) {
	t.Parallel()

	executor := NewMockWSExecutor()
	header := http.Header{"Authorization": []string{"key"}}
	_, err := executor.Connect(context.Background(), "wss://example/ws/account?accountId=1", header)
	require.NoError(t, err)

	log := executor.CallLog()
	require.Len(t, log, 1)
	assert.Equal(t, "Connect", log[0].Op)
	assert.Equal(t, []any{"wss://example/ws/account?accountId=1", header}, log[0].Args)
	assert.Len(t, executor.Connections(), 1)
}

func TestMockWSExecutorStagedConnectFailure(t *testing.T) {
	t.Parallel()

	staged := &hibachi.WSConnectionError{Message: "dial refused"}
	executor := NewMockWSExecutor()
	executor.StageConnect(Err(staged))

	_, err := executor.Connect(context.Background(), "wss://example/ws/trade", nil)
	require.Error(t, err)
	assert.Same(t, staged, err.(*hibachi.WSConnectionError))

	// The attempt is logged even though it failed, and no connection is
	// registered for it.
	assert.Len(t, executor.CallLog(), 1)
	assert.Empty(t, executor.Connections())

	// The next attempt succeeds again.
	_, err = executor.Connect(context.Background(), "wss://example/ws/trade", nil)
	require.NoError(t, err)
	assert.Len(t, executor.Connections(), 1)
}

func TestMockWSExecutorStagedConnection(t *testing.T) {
	t.Parallel()

	prepared := NewMockWSConnection()
	prepared.StageRecv(Value("hello"))

	executor := NewMockWSExecutor()
	executor.StageConnect(Value(prepared))

	conn, err := executor.Connect(context.Background(), "wss://example/ws/market", nil)
	require.NoError(t, err)
	require.Same(t, prepared, conn)

	got, err := conn.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, []*MockWSConnection{prepared}, executor.Connections())
}

func TestMockWSExecutorRejectsWrongStagedType(t *testing.T) {
	t.Parallel()

	executor := NewMockWSExecutor()
	executor.StageConnect(Value("not a connection"))

	_, err := executor.Connect(context.Background(), "wss://example/ws/market", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want *MockWSConnection")
	assert.Empty(t, executor.Connections())
}

func TestHarnessIsolation(t *testing.T) {
	t.Parallel()

	first := NewHarness()
	second := NewHarness()
	first.HTTP.Stage(Value(jsonResponse(t, 200, `{}`)))

	_, err := second.HTTP.SendSimpleRequest(context.Background(), "/market/inventory")
	var unstaged *UnstagedCallError
	require.ErrorAs(t, err, &unstaged)

	require.NoError(t, second.VerifyConsumed())
	err = first.VerifyConsumed()
	var unconsumed *UnconsumedOutputsError
	require.ErrorAs(t, err, &unconsumed)
	assert.Equal(t, 1, unconsumed.Remaining)
}

func TestHarnessVerifyConsumedCoversConnections(t *testing.T) {
	t.Parallel()

	harness := NewHarness()
	conn, err := harness.WS.Connect(context.Background(), "wss://example/ws/market", nil)
	require.NoError(t, err)
	conn.(*MockWSConnection).StageRecv(Value("never read"))

	err = harness.VerifyConsumed()
	var unconsumed *UnconsumedOutputsError
	require.ErrorAs(t, err, &unconsumed)
	assert.Equal(t, 1, unconsumed.Remaining)
}

func TestHarnessVerifyConsumedCoversStagedConnects(t *testing.T) {
	t.Parallel()

	harness := NewHarness()
	harness.WS.StageConnect(Err(errors.New("dial refused")))

	err := harness.VerifyConsumed()
	var unconsumed *UnconsumedOutputsError
	require.ErrorAs(t, err, &unconsumed)
	assert.Equal(t, 1, unconsumed.Remaining)

	_, err = harness.WS.Connect(context.Background(), "wss://example/ws/market", nil)
	require.Error(t, err)
	require.NoError(t, harness.VerifyConsumed())
}

func TestStagedSequencesExactConsumption(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 7} {
		n := n
		t.Run(fmt.Sprintf("length_%d", n), func(t *testing.T) {
			t.Parallel()

			mock := NewMockHTTPExecutor()
			staged := make([]*hibachi.HTTPResponse, n)
			for i := range staged {
				staged[i] = jsonResponse(t, 200, fmt.Sprintf(`{"index":%d}`, i))
				mock.Stage(Value(staged[i]))
			}

			for i := 0; i < n; i++ {
				got, err := mock.SendSimpleRequest(context.Background(), "/market/inventory")
				require.NoError(t, err)
				assert.Same(t, staged[i], got)
			}

			_, err := mock.SendSimpleRequest(context.Background(), "/market/inventory")
			var unstaged *UnstagedCallError
			require.ErrorAs(t, err, &unstaged)
		})
	}
}

func TestStagedErrorIdentityPreserved(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", sentinel)
	mock := NewMockHTTPExecutor()
	mock.Stage(Err(wrapped))

	_, err := mock.SendSimpleRequest(context.Background(), "/market/inventory")
	require.Error(t, err)
	assert.Equal(t, wrapped, err)
	assert.ErrorIs(t, err, sentinel)
}
