package service

import (
	"context"
	"errors"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

// CreateIndexerRequest describes an indexer to create.
type CreateIndexerRequest struct {
	Name        string `json:"name"`
	DataSource  string `json:"data_source"`
	TargetIndex string `json:"target_index"`
	// Replace deletes an existing indexer with the same name first.
	Replace bool `json:"replace"`
	// Minimal maps only the document key and sends no parameters.
	Minimal bool `json:"minimal"`
	// Preflight checks that the datasource and target index exist.
	Preflight bool `json:"preflight"`
	// Definition overrides the generated payload when set.
	Definition *domain.Indexer `json:"definition,omitempty"`
}

func (r *CreateIndexerRequest) indexer() (*domain.Indexer, error) {
	if r.Definition != nil {
		ix := *r.Definition
		for _, f := range []struct {
			field    string
			def      *string
			explicit string
		}{
			{"name", &ix.Name, r.Name},
			{"dataSourceName", &ix.DataSourceName, r.DataSource},
			{"targetIndexName", &ix.TargetIndexName, r.TargetIndex},
		} {
			if err := mergeField(f.field, f.def, f.explicit); err != nil {
				return nil, err
			}
		}
		if err := requireField("name", ix.Name); err != nil {
			return nil, err
		}
		if err := requireField("dataSourceName", ix.DataSourceName); err != nil {
			return nil, err
		}
		if err := requireField("targetIndexName", ix.TargetIndexName); err != nil {
			return nil, err
		}
		return &ix, nil
	}

	if err := requireField("name", r.Name); err != nil {
		return nil, err
	}
	if err := requireField("data_source", r.DataSource); err != nil {
		return nil, err
	}
	if err := requireField("target_index", r.TargetIndex); err != nil {
		return nil, err
	}
	return domain.NewIndexer(r.Name, r.DataSource, r.TargetIndex, r.Minimal), nil
}

// mergeField fills an empty definition field from the request and rejects a
// definition that disagrees with an explicitly requested value.
func mergeField(field string, def *string, explicit string) error {
	switch {
	case explicit == "":
		return nil
	case *def == "":
		*def = explicit
		return nil
	case *def != explicit:
		return fmt.Errorf("%w: definition %s %q does not match %q", ErrInvalidRequest, field, *def, explicit)
	}
	return nil
}

// CreateIndexerResult is the outcome of Create.
type CreateIndexerResult struct {
	Indexer  *domain.Indexer `json:"indexer"`
	Replaced bool            `json:"replaced"`
}

// IndexerService manages indexers.
type IndexerService struct {
	base
}

// NewIndexerService creates an indexer service.
func NewIndexerService(deps Deps) *IndexerService {
	return &IndexerService{base: newBase(deps)}
}

// Create runs the create-or-replace flow: optional preflight, existence
// check with delete, then PUT.
func (s *IndexerService) Create(ctx context.Context, req CreateIndexerRequest) (*CreateIndexerResult, error) {
	ix, err := req.indexer()
	if err != nil {
		return nil, err
	}

	result := &CreateIndexerResult{}
	err = s.record(ctx, domain.OperationCreateIndexer, domain.ResourceIndexer, ix.Name, func() error {
		if req.Preflight {
			if preErr := s.preflight(ctx, ix); preErr != nil {
				return preErr
			}
		}

		replaced, existErr := s.clearExisting(ctx, ix.Name, req.Replace)
		if existErr != nil {
			return existErr
		}
		result.Replaced = replaced

		created, putErr := s.client.CreateOrUpdateIndexer(ctx, ix)
		if putErr != nil {
			return s.connectionAware(ctx, "create indexer", putErr)
		}
		result.Indexer = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer %s: %w", ix.Name, err)
	}

	s.logger.Info("Indexer created",
		infralogger.String("indexer", ix.Name),
		infralogger.String("data_source", ix.DataSourceName),
		infralogger.String("target_index", ix.TargetIndexName),
		infralogger.Bool("replaced", result.Replaced),
	)
	return result, nil
}

func (s *IndexerService) preflight(ctx context.Context, ix *domain.Indexer) error {
	if _, err := s.client.GetDataSource(ctx, ix.DataSourceName); err != nil {
		if errors.Is(err, searchapi.ErrNotFound) {
			return fmt.Errorf("%w: datasource %q not found", ErrPreflightFailed, ix.DataSourceName)
		}
		return s.connectionAware(ctx, "get datasource", err)
	}

	if _, err := s.client.GetIndex(ctx, ix.TargetIndexName); err != nil {
		if errors.Is(err, searchapi.ErrNotFound) {
			return fmt.Errorf("%w: index %q not found", ErrPreflightFailed, ix.TargetIndexName)
		}
		return s.connectionAware(ctx, "get index", err)
	}
	return nil
}

// clearExisting deletes name when it exists and replace is set. A failed
// existence check or delete is logged and does not stop the PUT, which
// updates in place anyway.
func (s *IndexerService) clearExisting(ctx context.Context, name string, replace bool) (bool, error) {
	_, err := s.client.GetIndexer(ctx, name)
	switch {
	case errors.Is(err, searchapi.ErrNotFound):
		return false, nil
	case err != nil:
		s.logger.Warn("Indexer existence check failed, continuing",
			infralogger.String("indexer", name),
			infralogger.Error(err),
		)
		return false, nil
	}

	if !replace {
		return false, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	s.logger.Info("Indexer already exists, deleting", infralogger.String("indexer", name))
	if delErr := s.client.DeleteIndexer(ctx, name); delErr != nil && !errors.Is(delErr, searchapi.ErrNotFound) {
		s.logger.Warn("Failed to delete existing indexer, updating in place",
			infralogger.String("indexer", name),
			infralogger.Error(delErr),
		)
		return false, nil
	}
	return true, nil
}

// Get returns one indexer.
func (s *IndexerService) Get(ctx context.Context, name string) (*domain.Indexer, error) {
	ix, err := s.client.GetIndexer(ctx, name)
	if err != nil {
		return nil, s.connectionAware(ctx, "get indexer", err)
	}
	return ix, nil
}

// List returns every indexer.
func (s *IndexerService) List(ctx context.Context) ([]domain.Indexer, error) {
	list, err := s.client.ListIndexers(ctx)
	if err != nil {
		return nil, s.connectionAware(ctx, "list indexers", err)
	}
	return list, nil
}

// Delete removes an indexer.
func (s *IndexerService) Delete(ctx context.Context, name string) error {
	return s.record(ctx, domain.OperationDeleteIndexer, domain.ResourceIndexer, name, func() error {
		return s.connectionAware(ctx, "delete indexer", s.client.DeleteIndexer(ctx, name))
	})
}

// Run starts an on-demand indexer run.
func (s *IndexerService) Run(ctx context.Context, name string) error {
	return s.record(ctx, domain.OperationRunIndexer, domain.ResourceIndexer, name, func() error {
		return s.connectionAware(ctx, "run indexer", s.client.RunIndexer(ctx, name))
	})
}

// Reset clears the indexer's change tracking state.
func (s *IndexerService) Reset(ctx context.Context, name string) error {
	return s.record(ctx, domain.OperationResetIndexer, domain.ResourceIndexer, name, func() error {
		return s.connectionAware(ctx, "reset indexer", s.client.ResetIndexer(ctx, name))
	})
}

// Status returns execution status and history.
func (s *IndexerService) Status(ctx context.Context, name string) (*domain.IndexerStatus, error) {
	st, err := s.client.IndexerStatus(ctx, name)
	if err != nil {
		return nil, s.connectionAware(ctx, "indexer status", err)
	}
	return st, nil
}

// History lists recent journal entries.
func (s *IndexerService) History(ctx context.Context, limit int) ([]domain.Operation, error) {
	ops, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return ops, nil
}
