// Package errors provides shared HTTP error parsing and wrapping helpers.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the minimum HTTP status code considered an error.
const MinErrorStatusCode = 400

// maxBodyBytes bounds how much of an error response is retained.
const maxBodyBytes = 64 << 10

// HTTPError represents an HTTP API error response.
type HTTPError struct {
	StatusCode int
	Status     string
	// Code is the service-defined error code, when the body carries one.
	Code    string
	Body    string
	Message string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("HTTP error (%d %s): %s: %s", e.StatusCode, e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	default:
		return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
	}
}

// ParseHTTPError reads resp.Body and returns an *HTTPError for status codes >= 400.
// It returns nil for successful responses.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
		}
	}

	return ParseHTTPErrorBody(resp.StatusCode, resp.Status, bodyBytes)
}

// ParseHTTPErrorBody builds an *HTTPError from an already-read body.
//
// Recognised shapes:
//
//	{"error": {"code": "...", "message": "..."}}   (OData / Azure)
//	{"error": "..."} or {"message": "..."}
//	{"errors": [{"title": "...", "detail": "..."}]} (JSON:API)
func ParseHTTPErrorBody(statusCode int, status string, bodyBytes []byte) *HTTPError {
	bodyStr := string(bodyBytes)
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Body:       bodyStr,
		Message:    strings.TrimSpace(bodyStr),
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if json.Unmarshal(bodyBytes, &envelope) != nil {
		return httpErr
	}

	if len(envelope.Error) > 0 {
		var odata struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		var plain string
		switch {
		case json.Unmarshal(envelope.Error, &odata) == nil && (odata.Code != "" || odata.Message != ""):
			httpErr.Code = odata.Code
			httpErr.Message = odata.Message
			return httpErr
		case json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
			httpErr.Message = plain
			return httpErr
		}
	}

	if envelope.Message != "" {
		httpErr.Message = envelope.Message
		return httpErr
	}

	if len(envelope.Errors) > 0 {
		details := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			if e.Detail != "" {
				details[i] = fmt.Sprintf("%s: %s", e.Title, e.Detail)
			} else {
				details[i] = e.Title
			}
		}
		httpErr.Message = strings.Join(details, "; ")
	}

	return httpErr
}

// GetHTTPStatusCode extracts the HTTP status code from anywhere in err's chain.
func GetHTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
