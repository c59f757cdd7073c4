package searchapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// CreateOrUpdateIndexer PUTs ix under ix.Name and returns the stored definition.
func (c *Client) CreateOrUpdateIndexer(ctx context.Context, ix *domain.Indexer) (*domain.Indexer, error) {
	const op = "create indexer"
	if ix == nil {
		return nil, errors.New(op + ": indexer is nil")
	}
	if err := requireName(op, ix.Name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPut,
		path:    resourcePath("indexers", ix.Name),
		body:    ix,
		success: []int{http.StatusOK, http.StatusCreated, http.StatusNoContent},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return ix, nil
	}

	var out domain.Indexer
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}

// GetIndexer fetches one indexer. A missing indexer yields an error matching ErrNotFound.
func (c *Client) GetIndexer(ctx context.Context, name string) (*domain.Indexer, error) {
	const op = "get indexer"
	if err := requireName(op, name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("indexers", name),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.Indexer
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}

// IndexerExists reports whether name exists. Only a 404 maps to false.
func (c *Client) IndexerExists(ctx context.Context, name string) (bool, error) {
	_, err := c.GetIndexer(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListIndexers returns every indexer on the service.
func (c *Client) ListIndexers(ctx context.Context) ([]domain.Indexer, error) {
	const op = "list indexers"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("indexers"),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.ListResponse[domain.Indexer]
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return out.Value, nil
}

// DeleteIndexer removes name. A missing indexer yields an error matching ErrNotFound.
func (c *Client) DeleteIndexer(ctx context.Context, name string) error {
	const op = "delete indexer"
	if err := requireName(op, name); err != nil {
		return err
	}

	_, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodDelete,
		path:    resourcePath("indexers", name),
		success: []int{http.StatusNoContent, http.StatusOK},
	})
	return err
}

// RunIndexer starts an on-demand run. The run itself is asynchronous.
func (c *Client) RunIndexer(ctx context.Context, name string) error {
	const op = "run indexer"
	if err := requireName(op, name); err != nil {
		return err
	}

	// A retried run could start a second execution.
	_, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    resourcePath("indexers", name, "run"),
		success: []int{http.StatusAccepted},
		noRetry: true,
	})
	return err
}

// ResetIndexer clears the change-tracking high-water mark.
func (c *Client) ResetIndexer(ctx context.Context, name string) error {
	const op = "reset indexer"
	if err := requireName(op, name); err != nil {
		return err
	}

	_, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    resourcePath("indexers", name, "reset"),
		success: []int{http.StatusNoContent},
	})
	return err
}

// IndexerStatus returns current and historical execution state.
func (c *Client) IndexerStatus(ctx context.Context, name string) (*domain.IndexerStatus, error) {
	const op = "indexer status"
	if err := requireName(op, name); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    resourcePath("indexers", name, "status"),
		success: []int{http.StatusOK},
	})
	if err != nil {
		return nil, err
	}

	var out domain.IndexerStatus
	if decodeErr := decodeInto(op, resp, &out); decodeErr != nil {
		return nil, decodeErr
	}
	return &out, nil
}
