package searchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/north-cloud/aisearch/infrastructure/errors"
	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

var (
	// ErrNotFound matches any 404 from the service.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidName is returned before any request when a resource name is empty.
	ErrInvalidName = errors.New("resource name is required")
	// ErrCircuitOpen is returned while the service is being failed fast.
	ErrCircuitOpen = circuitbreaker.ErrCircuitOpen
)

// APIError is a non-success HTTP response from the service.
type APIError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	// Code and Message come from the {"error":{"code","message"}} envelope.
	Code      string
	Message   string
	Body      string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s %s returned %d (%s): %s", e.Op, e.Method, e.URL, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s %s returned %d: %s", e.Op, e.Method, e.URL, e.StatusCode, msg)
}

// Is makes errors.Is(err, ErrNotFound) true for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Unwrap exposes the generic HTTP error so shared helpers can read the status code.
func (e *APIError) Unwrap() error {
	return &infraerrors.HTTPError{
		StatusCode: e.StatusCode,
		Status:     http.StatusText(e.StatusCode),
		Code:       e.Code,
		Body:       e.Body,
		Message:    e.Message,
	}
}

// newAPIError builds an APIError from a response body.
func newAPIError(op, method, url string, statusCode int, body []byte, requestID string) *APIError {
	parsed := infraerrors.ParseHTTPErrorBody(statusCode, http.StatusText(statusCode), body)
	return &APIError{
		Op:         op,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Code:       parsed.Code,
		Message:    parsed.Message,
		Body:       parsed.Body,
		RequestID:  requestID,
	}
}

// TransportError is a failure to get any HTTP response: DNS, TCP, TLS or timeout.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConnectionError reports a transport failure together with the outcome of
// the reachability probe run afterwards.
type ConnectionError struct {
	Op           string
	Err          error
	Reachability domain.Reachability
}

func (e *ConnectionError) Error() string {
	probe := "service unreachable"
	switch {
	case e.Reachability.Reachable:
		probe = fmt.Sprintf("service reachable (status %d)", e.Reachability.StatusCode)
	case e.Reachability.Error != "":
		probe = "service unreachable: " + e.Reachability.Error
	}
	return fmt.Sprintf("%s: connection failed: %v; reachability probe: %s", e.Op, e.Err, probe)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err carries a transport failure rather
// than an HTTP response.
func IsConnectionError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// isRetryableStatus covers throttling and gateway-class failures.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isRetryable decides whether a single attempt's error warrants another.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return isRetryableStatus(code)
	}
	if IsConnectionError(err) {
		return true
	}
	return retry.DefaultIsRetryable(err)
}

// countsAgainstCircuit excludes client errors, which say nothing about service health.
func countsAgainstCircuit(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}
	return true
}
