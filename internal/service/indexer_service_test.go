package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

func TestIndexerService_CreateNew(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	journal := &memJournal{}
	svc := service.NewIndexerService(service.Deps{Client: client, Journal: journal})

	res, err := svc.Create(service.WithRequestID(context.Background(), "req-1"), service.CreateIndexerRequest{
		Name: "blob-indexer", DataSource: "blob-ds", TargetIndex: "docs",
	})
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, `"1"`, res.Indexer.ETag)
	assert.Len(t, res.Indexer.FieldMappings, 3)

	assert.Equal(t, []string{
		"GET /indexers/blob-indexer",
		"PUT /indexers/blob-indexer",
	}, fake.Calls())

	require.Len(t, journal.entries, 1)
	assert.Equal(t, domain.OperationCreateIndexer, journal.entries[0].op.Type)
	assert.Equal(t, "req-1", journal.entries[0].op.RequestID)
	assert.Equal(t, domain.OperationStatusCompleted, journal.entries[0].op.Status)
}

func TestIndexerService_CreateReplacesExisting(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	fake.indexers["blob-indexer"] = domain.Indexer{Name: "blob-indexer", DataSourceName: "old", TargetIndexName: "docs"}
	svc := service.NewIndexerService(service.Deps{Client: client})

	res, err := svc.Create(context.Background(), service.CreateIndexerRequest{
		Name: "blob-indexer", DataSource: "blob-ds", TargetIndex: "docs", Replace: true, Minimal: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, "blob-ds", res.Indexer.DataSourceName)
	assert.Equal(t, domain.MinimalFieldMappings(), res.Indexer.FieldMappings)

	assert.Equal(t, []string{
		"GET /indexers/blob-indexer",
		"DELETE /indexers/blob-indexer",
		"PUT /indexers/blob-indexer",
	}, fake.Calls())
}

func TestIndexerService_CreateWithoutReplace(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	fake.indexers["ix"] = domain.Indexer{Name: "ix"}
	journal := &memJournal{}
	svc := service.NewIndexerService(service.Deps{Client: client, Journal: journal})

	_, err := svc.Create(context.Background(), service.CreateIndexerRequest{
		Name: "ix", DataSource: "ds", TargetIndex: "idx",
	})
	require.ErrorIs(t, err, service.ErrAlreadyExists)
	assert.Equal(t, []string{"GET /indexers/ix"}, fake.Calls())
	assert.Equal(t, domain.OperationStatusFailed, journal.entries[0].op.Status)
}

func TestIndexerService_CreateExistenceCheckFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	fake.force("GET /indexers/ix", http.StatusInternalServerError)
	svc := service.NewIndexerService(service.Deps{Client: client})

	_, err := svc.Create(context.Background(), service.CreateIndexerRequest{
		Name: "ix", DataSource: "ds", TargetIndex: "idx",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /indexers/ix", "PUT /indexers/ix"}, fake.Calls())
}

func TestIndexerService_CreatePreflight(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	svc := service.NewIndexerService(service.Deps{Client: client})
	req := service.CreateIndexerRequest{
		Name: "ix", DataSource: "blob-ds", TargetIndex: "docs", Preflight: true,
	}

	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, service.ErrPreflightFailed)
	assert.Contains(t, err.Error(), `datasource "blob-ds"`)

	fake.addBlobDataSource("blob-ds", "docs")
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, service.ErrPreflightFailed)
	assert.Contains(t, err.Error(), `index "docs"`)

	fake.addIndex("docs", "id", "content", "title")
	_, err = svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestIndexerService_CreateConnectionFailure(t *testing.T) {
	t.Parallel()

	svc := service.NewIndexerService(service.Deps{Client: deadClient(t)})

	_, err := svc.Create(context.Background(), service.CreateIndexerRequest{
		Name: "ix", DataSource: "ds", TargetIndex: "idx",
	})
	require.Error(t, err)

	var connErr *searchapi.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, connErr.Reachability.Reachable)
	assert.NotEmpty(t, connErr.Reachability.Error)
}

func TestIndexerService_CreateValidatesRequest(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	svc := service.NewIndexerService(service.Deps{Client: client})

	_, err := svc.Create(context.Background(), service.CreateIndexerRequest{Name: "ix"})
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	_, err = svc.Create(context.Background(), service.CreateIndexerRequest{
		Definition: &domain.Indexer{Name: "ix", DataSourceName: "ds"},
	})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	assert.Empty(t, fake.Calls())
}

func TestIndexerService_CreateCustomDefinition(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	svc := service.NewIndexerService(service.Deps{Client: client})

	def := &domain.Indexer{
		DataSourceName:  "ds",
		TargetIndexName: "idx",
		FieldMappings:   []domain.FieldMapping{{SourceFieldName: "metadata_storage_path", TargetFieldName: "id"}},
	}
	res, err := svc.Create(context.Background(), service.CreateIndexerRequest{Name: "custom", Definition: def})
	require.NoError(t, err)
	assert.Equal(t, "custom", res.Indexer.Name)
	assert.Equal(t, "metadata_storage_path", fake.indexers["custom"].FieldMappings[0].SourceFieldName)
}

func TestIndexerService_CreateDefinitionMergesExplicitNames(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	svc := service.NewIndexerService(service.Deps{Client: client})
	ctx := context.Background()

	res, err := svc.Create(ctx, service.CreateIndexerRequest{
		Name:        "merged",
		DataSource:  "ds",
		TargetIndex: "idx",
		Definition:  &domain.Indexer{Description: "from file"},
	})
	require.NoError(t, err)
	assert.Equal(t, "merged", res.Indexer.Name)
	assert.Equal(t, "ds", res.Indexer.DataSourceName)
	assert.Equal(t, "idx", res.Indexer.TargetIndexName)

	conflicts := []service.CreateIndexerRequest{
		{Name: "ix", Definition: &domain.Indexer{Name: "other", DataSourceName: "ds", TargetIndexName: "idx"}},
		{Name: "ix", DataSource: "ds2", Definition: &domain.Indexer{DataSourceName: "ds", TargetIndexName: "idx"}},
		{Name: "ix", TargetIndex: "idx2", Definition: &domain.Indexer{DataSourceName: "ds", TargetIndexName: "idx"}},
	}
	for _, req := range conflicts {
		_, err = svc.Create(ctx, req)
		require.ErrorIs(t, err, service.ErrInvalidRequest)
		assert.Contains(t, err.Error(), "does not match")
	}
	assert.NotContains(t, fake.indexers, "other")
	assert.NotContains(t, fake.indexers, "ix")
}

func TestIndexerService_Lifecycle(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	fake.indexers["ix"] = domain.Indexer{Name: "ix"}
	fake.statuses["ix"] = domain.IndexerStatus{Status: "running"}
	journal := &memJournal{}
	svc := service.NewIndexerService(service.Deps{Client: client, Journal: journal})
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, "ix"))
	require.NoError(t, svc.Reset(ctx, "ix"))

	st, err := svc.Status(ctx, "ix")
	require.NoError(t, err)
	assert.Equal(t, "running", st.Status)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, "ix"))
	_, err = svc.Get(ctx, "ix")
	require.ErrorIs(t, err, searchapi.ErrNotFound)

	err = svc.Delete(ctx, "ix")
	require.ErrorIs(t, err, searchapi.ErrNotFound)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	types := make([]domain.OperationType, 0, len(history))
	for _, op := range history {
		types = append(types, op.Type)
	}
	assert.Equal(t, []domain.OperationType{
		domain.OperationRunIndexer,
		domain.OperationResetIndexer,
		domain.OperationDeleteIndexer,
		domain.OperationDeleteIndexer,
	}, types)
	assert.Equal(t, domain.OperationStatusFailed, history[3].Status)
}

type failingJournal struct{ memJournal }

func (*failingJournal) Begin(context.Context, *domain.Operation) (int64, error) {
	return 0, errors.New("database down")
}

func TestIndexerService_JournalFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()

	fake, client := startFake(t)
	fake.indexers["ix"] = domain.Indexer{Name: "ix"}
	svc := service.NewIndexerService(service.Deps{Client: client, Journal: &failingJournal{}})

	require.NoError(t, svc.Run(context.Background(), "ix"))
}
