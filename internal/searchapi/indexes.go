package searchapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// GetIndex fetches one index definition.
func (c *Client) GetIndex(ctx context.Context, name string) (*domain.Index, error) {
	const op = "get index"
	if err := requireName(op, name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("indexes", name),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.Index
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}

// ListIndexes returns every index on the service.
func (c *Client) ListIndexes(ctx context.Context) ([]domain.Index, error) {
	const op = "list indexes"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("indexes"),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.ListResponse[domain.Index]
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return out.Value, nil
}

// Reachability probes GET /indexes once with the short probe timeout. It
// ignores the circuit breaker and never retries. Any HTTP response, even
// 401 or 403, counts as reachable.
func (c *Client) Reachability(ctx context.Context) domain.Reachability {
	start := time.Now()
	_, err := c.do(ctx, request{
		op:            "reachability probe",
		method:        http.MethodGet,
		path:          resourcePath("indexes"),
		query:         map[string][]string{"$select": {"name"}},
		success:       []int{http.StatusOK},
		noRetry:       true,
		timeout:       c.probeTO,
		bypassBreaker: true,
	})
	result := domain.Reachability{Latency: time.Since(start)}

	if err == nil {
		result.Reachable = true
		result.StatusCode = http.StatusOK
		return result
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		result.Reachable = true
		result.StatusCode = apiErr.StatusCode
		result.Error = apiErr.Message
		return result
	}

	result.Error = err.Error()
	return result
}

// ServiceStatistics is the body of GET /servicestats.
type ServiceStatistics struct {
	Counters map[string]ResourceCounter `json:"counters"`
	Limits   map[string]any             `json:"limits,omitempty"`
}

// ResourceCounter is one usage/quota pair.
type ResourceCounter struct {
	Usage int64  `json:"usage"`
	Quota *int64 `json:"quota"`
}

// ServiceStatistics returns resource usage and quotas.
func (c *Client) ServiceStatistics(ctx context.Context) (*ServiceStatistics, error) {
	const op = "service statistics"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("servicestats"),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out ServiceStatistics
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}
