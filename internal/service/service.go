// Package service orchestrates search API calls into the operations exposed by
// the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

var (
	// ErrAlreadyExists is returned by Create when the indexer exists and replacement is off.
	ErrAlreadyExists = errors.New("indexer already exists")
	// ErrPreflightFailed is returned when a dependency of the indexer is missing.
	ErrPreflightFailed = errors.New("preflight check failed")
	// ErrInvalidRequest is returned for incomplete requests.
	ErrInvalidRequest = errors.New("invalid request")
)

// SearchClient is the search API surface used by the services.
type SearchClient interface {
	CreateOrUpdateIndexer(ctx context.Context, ix *domain.Indexer) (*domain.Indexer, error)
	GetIndexer(ctx context.Context, name string) (*domain.Indexer, error)
	ListIndexers(ctx context.Context) ([]domain.Indexer, error)
	DeleteIndexer(ctx context.Context, name string) error
	RunIndexer(ctx context.Context, name string) error
	ResetIndexer(ctx context.Context, name string) error
	IndexerStatus(ctx context.Context, name string) (*domain.IndexerStatus, error)

	GetDataSource(ctx context.Context, name string) (*domain.DataSource, error)
	CreateOrUpdateDataSource(ctx context.Context, ds *domain.DataSource) (*domain.DataSource, error)
	DeleteDataSource(ctx context.Context, name string) error
	ListDataSources(ctx context.Context) ([]domain.DataSource, error)
	TestDataSource(ctx context.Context, name string) (*searchapi.TestDataSourceResult, error)

	GetIndex(ctx context.Context, name string) (*domain.Index, error)
	ListIndexes(ctx context.Context) ([]domain.Index, error)
	Reachability(ctx context.Context) domain.Reachability
	ServiceStatistics(ctx context.Context) (*searchapi.ServiceStatistics, error)
}

// Journal records mutating operations.
type Journal interface {
	Begin(ctx context.Context, op *domain.Operation) (int64, error)
	Finish(ctx context.Context, id int64, opErr error) error
	List(ctx context.Context, limit int) ([]domain.Operation, error)
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

// Begin implements Journal.
func (NopJournal) Begin(context.Context, *domain.Operation) (int64, error) { return 0, nil }

// Finish implements Journal.
func (NopJournal) Finish(context.Context, int64, error) error { return nil }

// List implements Journal.
func (NopJournal) List(context.Context, int) ([]domain.Operation, error) { return nil, nil }

// OperationObserver counts operation outcomes.
type OperationObserver interface {
	ObserveOperation(opType string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error) {}

type requestIDKey struct{}

// WithRequestID attaches a request ID that is stored with journal entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Deps are shared by every service.
type Deps struct {
	Client   SearchClient
	Journal  Journal
	Observer OperationObserver
	Logger   infralogger.Logger
}

type base struct {
	client   SearchClient
	journal  Journal
	observer OperationObserver
	logger   infralogger.Logger
}

func newBase(d Deps) base {
	b := base{client: d.Client, journal: d.Journal, observer: d.Observer, logger: d.Logger}
	if b.journal == nil {
		b.journal = NopJournal{}
	}
	if b.observer == nil {
		b.observer = nopObserver{}
	}
	if b.logger == nil {
		b.logger = infralogger.NewNop()
	}
	return b
}

// record journals fn as one operation. Journal failures are logged and never
// fail the operation itself.
func (b *base) record(ctx context.Context, opType domain.OperationType, kind, name string, fn func() error) error {
	op := &domain.Operation{
		Type:         opType,
		ResourceKind: kind,
		ResourceName: name,
		RequestID:    requestIDFrom(ctx),
	}

	id, beginErr := b.journal.Begin(ctx, op)
	if beginErr != nil {
		b.logger.Warn("Failed to journal operation",
			infralogger.String("operation", string(opType)),
			infralogger.Error(beginErr),
		)
	}

	err := fn()
	b.observer.ObserveOperation(string(opType), err)

	if beginErr == nil {
		if finishErr := b.journal.Finish(context.WithoutCancel(ctx), id, err); finishErr != nil {
			b.logger.Warn("Failed to finish journal entry",
				infralogger.Int64("id", id),
				infralogger.Error(finishErr),
			)
		}
	}
	return err
}

// connectionAware turns a transport failure into a *searchapi.ConnectionError
// carrying the reachability probe outcome. Other errors pass through.
func (b *base) connectionAware(ctx context.Context, op string, err error) error {
	if err == nil || !searchapi.IsConnectionError(err) {
		return err
	}

	probe := b.client.Reachability(context.WithoutCancel(ctx))
	b.logger.Error("Connection to search service failed",
		infralogger.String("operation", op),
		infralogger.Error(err),
		infralogger.Bool("reachable", probe.Reachable),
		infralogger.Int("probe_status", probe.StatusCode),
		infralogger.Duration("probe_latency", probe.Latency),
	)
	return &searchapi.ConnectionError{Op: op, Err: err, Reachability: probe}
}

func requireField(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}
	return nil
}
