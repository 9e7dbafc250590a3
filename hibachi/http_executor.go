package hibachi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// NetHTTPExecutor is the default HTTPExecutor, built on net/http. Simple
// requests go to the data API, authorized requests to the trading API with
// the API key in the Authorization header.
type NetHTTPExecutor struct {
	apiURL     string
	dataAPIURL string
	client     *http.Client

	mu     sync.RWMutex
	apiKey string
}

// NewNetHTTPExecutor creates an executor against the given endpoints.
// apiKey may be empty; authorized requests then fail with
// MissingCredentialsError until SetAPIKey is called.
func NewNetHTTPExecutor(apiURL, dataAPIURL, apiKey string) *NetHTTPExecutor {
	return &NetHTTPExecutor{
		apiURL:     apiURL,
		dataAPIURL: dataAPIURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// APIKey returns the configured API key.
func (e *NetHTTPExecutor) APIKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.apiKey
}

// SetAPIKey replaces the API key used for authorized requests.
func (e *NetHTTPExecutor) SetAPIKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apiKey = key
}

// SendSimpleRequest performs an unauthenticated GET against the data API.
func (e *NetHTTPExecutor) SendSimpleRequest(ctx context.Context, path string) (*HTTPResponse, error) {
	reqURL := e.dataAPIURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ConnectionError{Message: fmt.Sprintf("invalid request for %s: %v", reqURL, err), URL: reqURL, Cause: err}
	}
	req.Header.Set("Hibachi-Client", ClientID)

	return e.do(req, reqURL)
}

// SendAuthorizedRequest performs an authenticated request against the
// trading API.
func (e *NetHTTPExecutor) SendAuthorizedRequest(ctx context.Context, method, path string, body json.RawMessage) (*HTTPResponse, error) {
	apiKey := e.APIKey()
	if apiKey == "" {
		return nil, &MissingCredentialsError{CredentialType: "API key"}
	}

	reqURL := e.apiURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &ConnectionError{Message: fmt.Sprintf("invalid %s request for %s: %v", method, reqURL, err), URL: reqURL, Cause: err}
	}
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Hibachi-Client", ClientID)

	return e.do(req, reqURL)
}

// do executes the request and maps transport failures to the SDK taxonomy.
func (e *NetHTTPExecutor) do(req *http.Request, reqURL string) (*HTTPResponse, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			return nil, &TimeoutError{Message: fmt.Sprintf("request to %s timed out", reqURL), Cause: err}
		case errors.Is(err, context.DeadlineExceeded):
			return nil, &TimeoutError{Message: fmt.Sprintf("request to %s timed out", reqURL), Cause: err}
		default:
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				return nil, &ConnectionError{Message: fmt.Sprintf("failed to connect to %s: %v", reqURL, urlErr.Err), URL: reqURL, Cause: err}
			}
			return nil, &ConnectionError{Message: fmt.Sprintf("request to %s failed: %v", reqURL, err), URL: reqURL, Cause: err}
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Message: fmt.Sprintf("failed to read response from %s: %v", reqURL, err), URL: reqURL, Cause: err}
	}

	body := json.RawMessage(raw)
	if len(raw) > 0 && !json.Valid(raw) {
		return nil, &DeserializationError{Message: fmt.Sprintf("response from %s is not valid JSON", reqURL)}
	}

	return &HTTPResponse{Status: resp.StatusCode, Body: body, Headers: resp.Header}, nil
}
