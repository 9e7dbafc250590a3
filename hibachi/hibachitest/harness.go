package hibachitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
)

// MockHTTPExecutor implements hibachi.HTTPExecutor against a queue of
// staged outputs. Every request is logged, then the next staged output is
// consumed and returned or raised; logging happens even when consumption
// fails so call-order assertions hold regardless of outcome.
type MockHTTPExecutor struct {
	queue outputQueue
	log   callLog

	mu     sync.RWMutex
	apiKey string
}

// NewMockHTTPExecutor creates an empty mock HTTP executor.
func NewMockHTTPExecutor() *MockHTTPExecutor {
	return &MockHTTPExecutor{}
}

// Stage appends outputs to the executor's queue. Successive requests
// consume them in staging order.
func (m *MockHTTPExecutor) Stage(outputs ...Output) {
	m.queue.stage(outputs...)
}

// CallLog returns a copy of the recorded calls in invocation order.
func (m *MockHTTPExecutor) CallLog() []Call {
	return m.log.snapshot()
}

// Unconsumed reports how many staged outputs were never consumed.
func (m *MockHTTPExecutor) Unconsumed() int {
	return m.queue.remaining()
}

// SendSimpleRequest logs (path) and consumes the next staged output.
func (m *MockHTTPExecutor) SendSimpleRequest(ctx context.Context, path string) (*hibachi.HTTPResponse, error) {
	m.log.record("SendSimpleRequest", path)
	return m.consumeResponse("SendSimpleRequest")
}

// SendAuthorizedRequest logs (method, path, body) and consumes the next
// staged output.
func (m *MockHTTPExecutor) SendAuthorizedRequest(ctx context.Context, method, path string, body json.RawMessage) (*hibachi.HTTPResponse, error) {
	m.log.record("SendAuthorizedRequest", method, path, body)
	return m.consumeResponse("SendAuthorizedRequest")
}

func (m *MockHTTPExecutor) consumeResponse(op string) (*hibachi.HTTPResponse, error) {
	value, err := m.queue.consume(op)
	if err != nil {
		return nil, err
	}
	resp, ok := value.(*hibachi.HTTPResponse)
	if !ok {
		return nil, fmt.Errorf("staged output for %s is %T, want *hibachi.HTTPResponse", op, value)
	}
	return resp, nil
}

// APIKey returns the stored API key.
func (m *MockHTTPExecutor) APIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKey
}

// SetAPIKey stores the API key for later assertions.
func (m *MockHTTPExecutor) SetAPIKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = key
}

// MockWSConnection implements hibachi.WSConnection with two independent
// queues: a lifecycle queue consumed by Send and Close, and a receive
// queue consumed by Recv. Each connection has its own queues and call log,
// so staging on one connection never satisfies another.
type MockWSConnection struct {
	// ID distinguishes connections created with identical parameters.
	ID string

	lifecycle outputQueue
	recvQueue outputQueue
	log       callLog
}

// NewMockWSConnection creates a standalone mock connection. Connections
// handed out by a MockWSExecutor are created and registered automatically.
func NewMockWSConnection() *MockWSConnection {
	return &MockWSConnection{ID: uuid.NewString()}
}

// Stage appends outputs to the lifecycle queue consumed by Send and Close.
// A staged error is returned by the consuming operation; a staged success
// value just lets the operation succeed.
func (c *MockWSConnection) Stage(outputs ...Output) {
	c.lifecycle.stage(outputs...)
}

// StageRecv appends outputs to the receive queue. Success values must be
// strings; an error output makes the corresponding Recv fail with exactly
// that error.
func (c *MockWSConnection) StageRecv(outputs ...Output) {
	c.recvQueue.stage(outputs...)
}

// CallLog returns a copy of the recorded calls in invocation order.
func (c *MockWSConnection) CallLog() []Call {
	return c.log.snapshot()
}

// Unconsumed reports leftover staged outputs across both queues.
func (c *MockWSConnection) Unconsumed() int {
	return c.lifecycle.remaining() + c.recvQueue.remaining()
}

// Send logs the message and consumes the lifecycle queue.
func (c *MockWSConnection) Send(ctx context.Context, message string) error {
	c.log.record("Send", message)
	_, err := c.lifecycle.consume("Send")
	return err
}

// Recv logs the call and pops the next staged inbound message. An empty
// receive queue yields an UnstagedRecvError.
func (c *MockWSConnection) Recv(ctx context.Context) (string, error) {
	c.log.record("Recv")
	value, err := c.recvQueue.consume("Recv")
	if err != nil {
		if _, unstaged := err.(*UnstagedCallError); unstaged {
			return "", &UnstagedRecvError{Op: "Recv"}
		}
		return "", err
	}
	message, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("staged receive output is %T, want string", value)
	}
	return message, nil
}

// Close logs the call and consumes the lifecycle queue.
func (c *MockWSConnection) Close() error {
	c.log.record("Close")
	_, err := c.lifecycle.consume("Close")
	return err
}

// MockWSExecutor implements hibachi.WSExecutor as a factory and registry
// of mock connections. With nothing staged, Connect always succeeds and
// hands out a fresh connection; connection-level failures belong on the
// created connection's own queues. StageConnect gates establishment for
// tests that need dial-level failures or a pre-staged connection.
type MockWSExecutor struct {
	queue outputQueue
	log   callLog

	mu          sync.Mutex
	connections []*MockWSConnection
}

// NewMockWSExecutor creates an empty mock WebSocket executor.
func NewMockWSExecutor() *MockWSExecutor {
	return &MockWSExecutor{}
}

// StageConnect appends outputs governing subsequent Connect calls. A
// staged error makes Connect fail; a staged *MockWSConnection is
// registered and returned, letting tests pre-load its queues; a staged
// nil value yields a fresh connection.
func (e *MockWSExecutor) StageConnect(outputs ...Output) {
	e.queue.stage(outputs...)
}

// CallLog returns a copy of the recorded connection attempts.
func (e *MockWSExecutor) CallLog() []Call {
	return e.log.snapshot()
}

// Unconsumed reports how many staged connect outputs were never consumed.
func (e *MockWSExecutor) Unconsumed() int {
	return e.queue.remaining()
}

// Connections returns all connections created or registered so far, in
// creation order.
func (e *MockWSExecutor) Connections() []*MockWSConnection {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*MockWSConnection, len(e.connections))
	copy(out, e.connections)
	return out
}

// Connect logs the attempt and returns a connection. The staged queue is
// consumed in one atomic step, so the default factory never fails even
// under interleaved Connect calls.
func (e *MockWSExecutor) Connect(ctx context.Context, url string, header http.Header) (hibachi.WSConnection, error) {
	e.log.record("Connect", url, header)

	if staged, ok := e.queue.tryConsume(); ok {
		if staged.Err != nil {
			return nil, staged.Err
		}
		if staged.Value != nil {
			conn, ok := staged.Value.(*MockWSConnection)
			if !ok {
				return nil, fmt.Errorf("staged connect output is %T, want *MockWSConnection", staged.Value)
			}
			if conn != nil {
				e.register(conn)
				return conn, nil
			}
		}
	}

	conn := NewMockWSConnection()
	e.register(conn)
	return conn, nil
}

func (e *MockWSExecutor) register(conn *MockWSConnection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connections = append(e.connections, conn)
}

// Harness is the per-test composition root: one mock HTTP executor and
// one mock WebSocket executor. Construct a fresh Harness in every test so
// no staged state or call log crosses test boundaries.
type Harness struct {
	HTTP *MockHTTPExecutor
	WS   *MockWSExecutor
}

// NewHarness creates a fresh harness.
func NewHarness() *Harness {
	return &Harness{
		HTTP: NewMockHTTPExecutor(),
		WS:   NewMockWSExecutor(),
	}
}

// Connections returns every mock connection the WebSocket executor has
// handed out.
func (h *Harness) Connections() []*MockWSConnection {
	return h.WS.Connections()
}

// VerifyConsumed returns an UnconsumedOutputsError when any staged output
// was never consumed, for use as a teardown check against over-staging.
func (h *Harness) VerifyConsumed() error {
	remaining := h.HTTP.Unconsumed() + h.WS.Unconsumed()
	for _, conn := range h.WS.Connections() {
		remaining += conn.Unconsumed()
	}
	if remaining > 0 {
		return &UnconsumedOutputsError{Remaining: remaining}
	}
	return nil
}
