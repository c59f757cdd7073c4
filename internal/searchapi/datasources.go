package searchapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// GetDataSource fetches one datasource. Credentials come back redacted.
func (c *Client) GetDataSource(ctx context.Context, name string) (*domain.DataSource, error) {
	const op = "get datasource"
	if err := requireName(op, name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("datasources", name),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.DataSource
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}

// CreateOrUpdateDataSource PUTs ds under ds.Name.
func (c *Client) CreateOrUpdateDataSource(ctx context.Context, ds *domain.DataSource) (*domain.DataSource, error) {
	const op = "create datasource"
	if ds == nil {
		return nil, errors.New(op + ": datasource is nil")
	}
	if err := requireName(op, ds.Name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPut,
		path:    resourcePath("datasources", ds.Name),
		body:    ds,
		success: []int{http.StatusOK, http.StatusCreated, http.StatusNoContent},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return ds.Redacted(), nil
	}

	var out domain.DataSource
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}

// DeleteDataSource removes name.
func (c *Client) DeleteDataSource(ctx context.Context, name string) error {
	const op = "delete datasource"
	if err := requireName(op, name); err != nil {
		return err
	}

	_, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodDelete,
		path:    resourcePath("datasources", name),
		success: []int{http.StatusNoContent, http.StatusOK},
	})
	return err
}

// ListDataSources returns every datasource on the service.
func (c *Client) ListDataSources(ctx context.Context) ([]domain.DataSource, error) {
	const op = "list datasources"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("datasources"),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.ListResponse[domain.DataSource]
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return out.Value, nil
}

// TestDataSourceResult is the outcome of POST /datasources/{name}/test.
type TestDataSourceResult struct {
	StatusCode int
	// Body is the raw response, often empty on success.
	Body string
}

// TestDataSource asks the service to validate the datasource's connection.
// Any non-success response is returned as *APIError; callers usually
// interpret it as a failed test rather than a hard error.
func (c *Client) TestDataSource(ctx context.Context, name string) (*TestDataSourceResult, error) {
	const op = "test datasource"
	if err := requireName(op, name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    resourcePath("datasources", name, "test"),
		body:    map[string]any{},
		success: []int{http.StatusOK, http.StatusNoContent},
	})
	if err != nil {
		return nil, err
	}
	return &TestDataSourceResult{StatusCode: resp.StatusCode, Body: string(resp.Body)}, nil
}
