package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

// fakeSearch is an in-memory search service control plane.
type fakeSearch struct {
	mu          sync.Mutex
	indexers    map[string]domain.Indexer
	datasources map[string]map[string]any
	indexes     map[string]domain.Index
	statuses    map[string]domain.IndexerStatus
	stats       map[string]any
	// forced maps "METHOD /path" to a status code returned instead.
	forced map[string]int
	calls  []string
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{
		indexers:    map[string]domain.Indexer{},
		datasources: map[string]map[string]any{},
		indexes:     map[string]domain.Index{},
		statuses:    map[string]domain.IndexerStatus{},
		forced:      map[string]int{},
	}
}

func (f *fakeSearch) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSearch) force(methodPath string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced[methodPath] = status
}

func (f *fakeSearch) addBlobDataSource(name, container string) {
	f.datasources[name] = map[string]any{
		"name":        name,
		"type":        domain.DataSourceTypeAzureBlob,
		"credentials": map[string]any{"connectionString": nil},
		"container":   map[string]any{"name": container},
	}
}

func (f *fakeSearch) addIndex(name string, fields ...string) {
	idx := domain.Index{Name: name}
	for i, field := range fields {
		idx.Fields = append(idx.Fields, domain.IndexField{Name: field, Type: "Edm.String", Key: i == 0})
	}
	f.indexes[name] = idx
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": "", "message": msg}})
}

func (f *fakeSearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, key)

	if status, ok := f.forced[key]; ok {
		writeError(w, status, "forced")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch parts[0] {
	case "indexers":
		f.serveIndexers(w, r, parts[1:])
	case "datasources":
		f.serveDataSources(w, r, parts[1:])
	case "indexes":
		f.serveIndexes(w, parts[1:])
	case "servicestats":
		if f.stats == nil {
			writeError(w, http.StatusNotFound, "no stats")
			return
		}
		writeJSON(w, http.StatusOK, f.stats)
	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

func (f *fakeSearch) serveIndexers(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		list := make([]domain.Indexer, 0, len(f.indexers))
		for _, ix := range f.indexers {
			list = append(list, ix)
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Indexer]{Value: list})
		return
	}

	name := rest[0]
	ix, exists := f.indexers[name]

	if len(rest) == 2 {
		if !exists {
			writeError(w, http.StatusNotFound, "No indexer with the name '"+name+"' was found")
			return
		}
		switch rest[1] {
		case "run":
			w.WriteHeader(http.StatusAccepted)
		case "reset":
			w.WriteHeader(http.StatusNoContent)
		case "status":
			writeJSON(w, http.StatusOK, f.statuses[name])
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeError(w, http.StatusNotFound, "No indexer with the name '"+name+"' was found")
			return
		}
		writeJSON(w, http.StatusOK, ix)
	case http.MethodPut:
		var in domain.Indexer
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.ETag = `"1"`
		f.indexers[name] = in
		status := http.StatusCreated
		if exists {
			status = http.StatusOK
		}
		writeJSON(w, status, in)
	case http.MethodDelete:
		if !exists {
			writeError(w, http.StatusNotFound, "No indexer with the name '"+name+"' was found")
			return
		}
		delete(f.indexers, name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeSearch) serveDataSources(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		list := make([]map[string]any, 0, len(f.datasources))
		for _, ds := range f.datasources {
			list = append(list, ds)
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": list})
		return
	}

	name := rest[0]
	ds, exists := f.datasources[name]
	if len(rest) == 2 && rest[1] == "test" {
		if !exists {
			writeError(w, http.StatusNotFound, "datasource not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeError(w, http.StatusNotFound, "No data source with the name '"+name+"' was found")
			return
		}
		writeJSON(w, http.StatusOK, ds)
	case http.MethodPut:
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.datasources[name] = in
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		delete(f.datasources, name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeSearch) serveIndexes(w http.ResponseWriter, rest []string) {
	if len(rest) == 0 {
		list := make([]domain.Index, 0, len(f.indexes))
		for _, idx := range f.indexes {
			list = append(list, idx)
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Index]{Value: list})
		return
	}
	idx, ok := f.indexes[rest[0]]
	if !ok {
		writeError(w, http.StatusNotFound, "index not found")
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func newClient(t *testing.T, endpoint string) *searchapi.Client {
	t.Helper()

	auth, err := searchapi.NewAPIKeyAuth("key")
	require.NoError(t, err)

	client, err := searchapi.NewClient(searchapi.Config{
		Endpoint:            endpoint,
		Timeout:             2 * time.Second,
		ReachabilityTimeout: time.Second,
		Retry:               retry.Config{MaxAttempts: 1},
		Breaker:             circuitbreaker.Config{FailureThreshold: 100},
	}, auth)
	require.NoError(t, err)
	return client
}

func startFake(t *testing.T) (*fakeSearch, *searchapi.Client) {
	t.Helper()

	fake := newFakeSearch()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, newClient(t, srv.URL)
}

// deadClient points at a server that has already shut down.
func deadClient(t *testing.T) *searchapi.Client {
	t.Helper()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()
	return newClient(t, endpoint)
}

type journalEntry struct {
	op  domain.Operation
	err error
}

// memJournal records operations in memory.
type memJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (j *memJournal) Begin(_ context.Context, op *domain.Operation) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{op: *op})
	return int64(len(j.entries)), nil
}

func (j *memJournal) Finish(_ context.Context, id int64, opErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[id-1].err = opErr
	status := domain.OperationStatusCompleted
	if opErr != nil {
		status = domain.OperationStatusFailed
	}
	j.entries[id-1].op.Status = status
	return nil
}

func (j *memJournal) List(context.Context, int) ([]domain.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ops := make([]domain.Operation, 0, len(j.entries))
	for _, e := range j.entries {
		ops = append(ops, e.op)
	}
	return ops, nil
}
