package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	infrajwt "github.com/jonesrussell/north-cloud/aisearch/infrastructure/jwt"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/aisearch/internal/api"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// upstream answers a handful of control-plane calls.
func upstream(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /indexers/existing":
			_, _ = w.Write([]byte(`{"name":"existing","dataSourceName":"ds","targetIndexName":"idx"}`))
		case "GET /indexers/missing", "GET /indexers/new":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"","message":"not found"}}`))
		case "PUT /indexers/new", "PUT /indexers/existing":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"new","dataSourceName":"ds","targetIndexName":"idx"}`))
		case "DELETE /indexers/existing":
			w.WriteHeader(http.StatusNoContent)
		case "POST /indexers/existing/run":
			w.WriteHeader(http.StatusAccepted)
		case "GET /indexes":
			_, _ = w.Write([]byte(`{"value":[{"name":"idx"}]}`))
		case "POST /datasources/ds/test":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"InvalidCredentials","message":"bad key"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"","message":"unknown"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newRouter(t *testing.T, endpoint, secret string) *gin.Engine {
	t.Helper()

	auth, err := searchapi.NewAPIKeyAuth("key")
	require.NoError(t, err)
	client, err := searchapi.NewClient(searchapi.Config{
		Endpoint: endpoint,
		Timeout:  2 * time.Second,
		Retry:    retry.Config{MaxAttempts: 1},
		Breaker:  circuitbreaker.Config{FailureThreshold: 100},
	}, auth)
	require.NoError(t, err)

	deps := service.Deps{Client: client, Logger: infralogger.NewNop()}
	handler := api.NewHandler(api.Services{
		Indexers:    service.NewIndexerService(deps),
		DataSources: service.NewDataSourceService(deps),
		Indexes:     service.NewIndexService(deps),
		Diagnostics: service.NewDiagnosticsService(deps, nil),
	}, infralogger.NewNop())

	router := gin.New()
	api.SetupRoutes(router, handler, secret)
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateIndexer(t *testing.T) {
	t.Parallel()

	router := newRouter(t, upstream(t), "")

	rec := do(t, router, http.MethodPost, "/api/v1/indexers",
		`{"name":"new","data_source":"ds","target_index":"idx"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res service.CreateIndexerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Replaced)

	rec = do(t, router, http.MethodPost, "/api/v1/indexers",
		`{"name":"existing","data_source":"ds","target_index":"idx"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/indexers",
		`{"name":"existing","data_source":"ds","target_index":"idx","replace":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/indexers", `{"name":"new"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetIndexer_StatusMapping(t *testing.T) {
	t.Parallel()

	router := newRouter(t, upstream(t), "")

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/indexers/existing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/indexers/missing", "").Code)
	assert.Equal(t, http.StatusAccepted, do(t, router, http.MethodPost, "/api/v1/indexers/existing/run", "").Code)
}

func TestTestDataSource_UpstreamRejection(t *testing.T) {
	t.Parallel()

	router := newRouter(t, upstream(t), "")

	rec := do(t, router, http.MethodPost, "/api/v1/datasources/ds/test", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 400, body["upstream_status"], 0)
	assert.Equal(t, "InvalidCredentials", body["upstream_code"])
}

func TestConnectionFailure_ReturnsBadGateway(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()
	router := newRouter(t, endpoint, "")

	rec := do(t, router, http.MethodGet, "/api/v1/indexes", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "reachability")
}

func TestConnectivity(t *testing.T) {
	t.Parallel()

	router := newRouter(t, upstream(t), "")
	rec := do(t, router, http.MethodGet, "/api/v1/connectivity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"check":"reachability"`)
}

func TestHistory_ValidatesLimit(t *testing.T) {
	t.Parallel()

	router := newRouter(t, upstream(t), "")
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/history?limit=0", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/history?limit=5", "").Code)
}

func TestRoutes_RequireJWTWhenConfigured(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"
	router := newRouter(t, upstream(t), secret)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/indexes", "").Code)

	token, err := infrajwt.Sign(secret, &infrajwt.Claims{Sub: "operator"})
	require.NoError(t, err)
	rec := do(t, router, http.MethodGet, "/api/v1/indexes", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}
