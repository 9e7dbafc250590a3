package hibachi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaWSExecutor is the default WSExecutor, built on gorilla/websocket.
type GorillaWSExecutor struct {
	// HandshakeTimeout bounds the dial; zero means 15 seconds.
	HandshakeTimeout time.Duration
}

// NewGorillaWSExecutor creates a WebSocket executor with default settings.
func NewGorillaWSExecutor() *GorillaWSExecutor {
	return &GorillaWSExecutor{HandshakeTimeout: 15 * time.Second}
}

// Connect dials url and wraps the resulting connection.
func (e *GorillaWSExecutor) Connect(ctx context.Context, url string, header http.Header) (WSConnection, error) {
	timeout := e.HandshakeTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		msg := fmt.Sprintf("websocket connection failed: %v", err)
		if resp != nil {
			msg = fmt.Sprintf("websocket handshake failed with status %d: %v", resp.StatusCode, err)
		}
		return nil, &WSConnectionError{Message: msg, URL: url, Cause: err}
	}
	return &gorillaWSConnection{conn: conn}, nil
}

// gorillaWSConnection adapts a gorilla connection to WSConnection.
type gorillaWSConnection struct {
	conn *websocket.Conn
}

func (c *gorillaWSConnection) Send(ctx context.Context, message string) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		if websocket.IsUnexpectedCloseError(err) {
			return &WSConnectionError{Message: fmt.Sprintf("websocket closed while sending: %v", err), Cause: err}
		}
		return &WSMessageError{Message: fmt.Sprintf("failed to send websocket message: %v", err), Cause: err}
	}
	return nil
}

func (c *gorillaWSConnection) Recv(ctx context.Context) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return "", &TimeoutError{Message: "websocket receive timed out", Cause: ctx.Err()}
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
			websocket.IsUnexpectedCloseError(err) {
			return "", &WSConnectionError{Message: fmt.Sprintf("websocket closed while receiving: %v", err), Cause: err}
		}
		return "", &WSMessageError{Message: fmt.Sprintf("failed to receive websocket message: %v", err), Cause: err}
	}
	return string(data), nil
}

func (c *gorillaWSConnection) Close() error {
	// Best effort close handshake before tearing the socket down.
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
