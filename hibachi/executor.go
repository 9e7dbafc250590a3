package hibachi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Default endpoints for the production exchange.
const (
	DefaultAPIURL     = "https://api.hibachi.xyz"
	DefaultDataAPIURL = "https://data-api.hibachi.xyz"
)

// Version is the SDK version reported in the Hibachi-Client header.
const Version = "1.0.0"

// ClientID identifies this SDK to the exchange.
const ClientID = "HibachiGoSDK/" + Version

// HTTPResponse carries the status code, raw JSON body, and headers of one
// HTTP exchange. The body is kept raw so each endpoint can decode it into
// its own response type.
type HTTPResponse struct {
	Status  int
	Body    json.RawMessage
	Headers http.Header
}

// HTTPExecutor is the pluggable HTTP transport used by Client. The default
// implementation is NetHTTPExecutor; tests substitute
// hibachitest.MockHTTPExecutor.
type HTTPExecutor interface {
	// SendSimpleRequest performs an unauthenticated GET against the data
	// API.
	SendSimpleRequest(ctx context.Context, path string) (*HTTPResponse, error)

	// SendAuthorizedRequest performs an authenticated request against the
	// trading API. body may be nil.
	SendAuthorizedRequest(ctx context.Context, method, path string, body json.RawMessage) (*HTTPResponse, error)

	// APIKey returns the configured API key, or "" if unset.
	APIKey() string

	// SetAPIKey replaces the API key used for authorized requests.
	SetAPIKey(key string)
}

// WSConnection is one live WebSocket connection.
type WSConnection interface {
	// Send transmits one text message.
	Send(ctx context.Context, message string) error

	// Recv blocks until the next text message arrives.
	Recv(ctx context.Context) (string, error)

	// Close shuts the connection down.
	Close() error
}

// WSExecutor establishes WebSocket connections. The default implementation
// is GorillaWSExecutor; tests substitute hibachitest.MockWSExecutor.
type WSExecutor interface {
	Connect(ctx context.Context, url string, header http.Header) (WSConnection, error)
}

// checkResponse maps a non-2xx HTTP response to the SDK error taxonomy.
// The exchange reports errors with errorCode/status/message fields; rate
// limit responses additionally carry name/count/limit/windowDuration.
func checkResponse(resp *HTTPResponse) error {
	if resp.Status >= 200 && resp.Status < 300 {
		return nil
	}

	var body struct {
		ErrorCode      *int64  `json:"errorCode"`
		Status         *string `json:"status"`
		Message        *string `json:"message"`
		Name           *string `json:"name"`
		Count          *int64  `json:"count"`
		Limit          *int64  `json:"limit"`
		WindowDuration *string `json:"windowDuration"`
	}
	// Decode failures fall through to the generic message below.
	_ = json.Unmarshal(resp.Body, &body)

	message := "<no error message>"
	if body.ErrorCode != nil && body.Status != nil && body.Message != nil {
		message = fmt.Sprintf("[%d] %s: %s", *body.ErrorCode, *body.Status, *body.Message)
	} else if len(resp.Body) > 0 {
		message = string(resp.Body)
	}

	switch {
	case resp.Status == 400:
		return &StatusError{StatusCode: resp.Status, Message: "bad request: " + message}
	case resp.Status == 401:
		return &StatusError{StatusCode: resp.Status, Message: "unauthorized: " + message}
	case resp.Status == 403:
		return &StatusError{StatusCode: resp.Status, Message: "forbidden: " + message}
	case resp.Status == 404:
		return &StatusError{StatusCode: resp.Status, Message: "not found: " + message}
	case resp.Status == 429:
		if body.Name != nil && body.Count != nil && body.Limit != nil {
			message = fmt.Sprintf("rate limit %q exceeded: %d/%d", *body.Name, *body.Count, *body.Limit)
			if body.WindowDuration != nil {
				message += fmt.Sprintf(" (resets after %s)", *body.WindowDuration)
			}
		} else {
			message = "rate limit exceeded: " + message
		}
		return &StatusError{StatusCode: resp.Status, Message: message}
	case resp.Status >= 400 && resp.Status < 500:
		return &StatusError{StatusCode: resp.Status, Message: fmt.Sprintf("client error (%d): %s", resp.Status, message)}
	case resp.Status == 500:
		return &StatusError{StatusCode: resp.Status, Message: "internal server error: " + message}
	case resp.Status == 502:
		return &StatusError{StatusCode: resp.Status, Message: "bad gateway: " + message}
	case resp.Status == 503:
		return &StatusError{StatusCode: resp.Status, Message: "service unavailable: " + message}
	case resp.Status == 504:
		return &StatusError{StatusCode: resp.Status, Message: "gateway timeout: " + message}
	case resp.Status >= 500 && resp.Status < 600:
		return &StatusError{StatusCode: resp.Status, Message: fmt.Sprintf("server error (%d): %s", resp.Status, message)}
	default:
		return &StatusError{StatusCode: resp.Status, Message: fmt.Sprintf("unexpected status code (%d): %s", resp.Status, message)}
	}
}
