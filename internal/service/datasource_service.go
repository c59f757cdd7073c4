package service

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

// DataSourceService manages datasources.
type DataSourceService struct {
	base
}

// NewDataSourceService creates a datasource service.
func NewDataSourceService(deps Deps) *DataSourceService {
	return &DataSourceService{base: newBase(deps)}
}

// CreateBlobDataSourceRequest describes a blob datasource.
type CreateBlobDataSourceRequest struct {
	Name             string `json:"name"`
	ConnectionString string `json:"connection_string"` //nolint:gosec // G117: request field
	Container        string `json:"container"`
	Query            string `json:"query,omitempty"`
}

// Get returns one datasource.
func (s *DataSourceService) Get(ctx context.Context, name string) (*domain.DataSource, error) {
	ds, err := s.client.GetDataSource(ctx, name)
	if err != nil {
		return nil, s.connectionAware(ctx, "get datasource", err)
	}
	return ds, nil
}

// List returns every datasource.
func (s *DataSourceService) List(ctx context.Context) ([]domain.DataSource, error) {
	list, err := s.client.ListDataSources(ctx)
	if err != nil {
		return nil, s.connectionAware(ctx, "list datasources", err)
	}
	return list, nil
}

// CreateBlob creates or replaces an azureblob datasource.
func (s *DataSourceService) CreateBlob(ctx context.Context, req CreateBlobDataSourceRequest) (*domain.DataSource, error) {
	if err := requireField("name", req.Name); err != nil {
		return nil, err
	}
	if err := requireField("connection_string", req.ConnectionString); err != nil {
		return nil, err
	}
	if err := requireField("container", req.Container); err != nil {
		return nil, err
	}

	return s.Put(ctx, domain.NewBlobDataSource(req.Name, req.ConnectionString, req.Container, req.Query))
}

// Put creates or replaces ds.
func (s *DataSourceService) Put(ctx context.Context, ds *domain.DataSource) (*domain.DataSource, error) {
	if err := requireField("name", ds.Name); err != nil {
		return nil, err
	}
	if err := requireField("type", ds.Type); err != nil {
		return nil, err
	}

	var out *domain.DataSource
	err := s.record(ctx, domain.OperationPutDataSource, domain.ResourceDataSource, ds.Name, func() error {
		created, putErr := s.client.CreateOrUpdateDataSource(ctx, ds)
		if putErr != nil {
			return s.connectionAware(ctx, "create datasource", putErr)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put datasource %s: %w", ds.Name, err)
	}
	return out, nil
}

// Test asks the service to validate the datasource connection.
func (s *DataSourceService) Test(ctx context.Context, name string) (*searchapi.TestDataSourceResult, error) {
	res, err := s.client.TestDataSource(ctx, name)
	if err != nil {
		return nil, s.connectionAware(ctx, "test datasource", err)
	}
	return res, nil
}

// Delete removes a datasource.
func (s *DataSourceService) Delete(ctx context.Context, name string) error {
	return s.record(ctx, domain.OperationDeleteDataSource, domain.ResourceDataSource, name, func() error {
		return s.connectionAware(ctx, "delete datasource", s.client.DeleteDataSource(ctx, name))
	})
}

// IndexService reads index definitions.
type IndexService struct {
	base
}

// NewIndexService creates an index service.
func NewIndexService(deps Deps) *IndexService {
	return &IndexService{base: newBase(deps)}
}

// Get returns one index.
func (s *IndexService) Get(ctx context.Context, name string) (*domain.Index, error) {
	idx, err := s.client.GetIndex(ctx, name)
	if err != nil {
		return nil, s.connectionAware(ctx, "get index", err)
	}
	return idx, nil
}

// List returns every index.
func (s *IndexService) List(ctx context.Context) ([]domain.Index, error) {
	list, err := s.client.ListIndexes(ctx)
	if err != nil {
		return nil, s.connectionAware(ctx, "list indexes", err)
	}
	return list, nil
}
