// Package hibachi is a client SDK for the Hibachi exchange REST and
// WebSocket APIs.
//
// The package provides a typed REST client (Client), streaming WebSocket
// clients for market data, account updates, and trading
// (WSMarketClient, WSAccountClient, WSTradeClient), plus the pluggable
// transport interfaces (HTTPExecutor, WSExecutor) they run on. Test code
// substitutes the transports with the mocks in the hibachitest subpackage.
package hibachi

import (
	"errors"
	"fmt"
)

// Category sentinels. Every error produced by this SDK unwraps to exactly
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrExchange marks errors reported by the exchange itself: the request
	// reached a server and the server answered with an error response.
	ErrExchange = errors.New("exchange error")

	// ErrTransport marks network and protocol level failures: the request
	// or response never made it across intact. Often transient.
	ErrTransport = errors.New("transport error")

	// ErrValidation marks client-side input validation failures. No network
	// request was attempted; fixing the arguments fixes the error.
	ErrValidation = errors.New("validation error")
)

// StatusError is returned when the exchange answers with a non-2xx HTTP
// status. The concrete status code is preserved for callers that need to
// distinguish, for example, rate limiting from authorization failures.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrExchange }

// MaintenanceOutageError is returned when the exchange reports it is in a
// maintenance window and cannot serve the request.
type MaintenanceOutageError struct {
	Status string
	Note   string
}

func (e *MaintenanceOutageError) Error() string {
	if e.Note != "" {
		return fmt.Sprintf("exchange under maintenance (%s): %s", e.Status, e.Note)
	}
	return fmt.Sprintf("exchange under maintenance (%s)", e.Status)
}

func (e *MaintenanceOutageError) Unwrap() error { return ErrExchange }

// ConnectionError is returned when an HTTP connection cannot be established
// or is lost mid-request.
type ConnectionError struct {
	Message string
	URL     string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s (url: %s)", e.Message, e.URL)
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// TimeoutError is returned when a request or connection attempt times out.
type TimeoutError struct {
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string { return e.Message }

func (e *TimeoutError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// WSConnectionError is returned when a WebSocket connection fails to
// establish or closes unexpectedly.
type WSConnectionError struct {
	Message string
	URL     string
	Cause   error
}

func (e *WSConnectionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s (url: %s)", e.Message, e.URL)
	}
	return e.Message
}

func (e *WSConnectionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// WSMessageError is returned when sending or receiving a WebSocket message
// fails for a reason other than the connection closing.
type WSMessageError struct {
	Message string
	Cause   error
}

func (e *WSMessageError) Error() string { return e.Message }

func (e *WSMessageError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// SerializationError is returned when request data cannot be encoded.
type SerializationError struct {
	Message string
	Cause   error
}

func (e *SerializationError) Error() string { return e.Message }

func (e *SerializationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// DeserializationError is returned when a response body cannot be decoded
// into the expected shape.
type DeserializationError struct {
	Message string
	Cause   error
}

func (e *DeserializationError) Error() string { return e.Message }

func (e *DeserializationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// MissingCredentialsError is returned when an operation requires a
// credential that has not been configured on the client.
type MissingCredentialsError struct {
	// CredentialType names the missing credential, e.g. "API key".
	CredentialType string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s is not set", e.CredentialType)
}

func (e *MissingCredentialsError) Unwrap() error { return ErrValidation }

// validationError builds an ErrValidation-wrapped error with a formatted
// message. Kept private: callers match on ErrValidation, not the type.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
