package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/jonesrussell/north-cloud/aisearch/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Name: "aisearch", Version: "test"},
		Search:  config.SearchConfig{Endpoint: endpoint},
		Auth:    config.AuthConfig{Mode: config.AuthModeAPIKey, APIKey: "key"},
		Retry:   config.RetryConfig{MaxAttempts: 1},
		Breaker: config.BreakerConfig{FailureThreshold: 5},
	}
}

func TestSetupAuthenticator(t *testing.T) {
	t.Parallel()

	auth, err := SetupAuthenticator(testConfig("https://svc.search.windows.net"))
	require.NoError(t, err)
	assert.Equal(t, "api-key", auth.Scheme())

	cfg := testConfig("https://svc.search.windows.net")
	cfg.Auth.APIKey = ""
	_, err = SetupAuthenticator(cfg)
	require.Error(t, err)
}

func TestSetupJournal_Disabled(t *testing.T) {
	t.Parallel()

	journal, db, err := SetupJournal(context.Background(), testConfig(""), infralogger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, service.NopJournal{}, journal)
}

func TestSetupProber_Disabled(t *testing.T) {
	t.Parallel()

	prober, err := SetupProber(testConfig(""), infralogger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, prober)
}

func TestSearchHealthCheck(t *testing.T) {
	t.Parallel()

	// A rejected key still proves the endpoint answers.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := SetupSearchClient(testConfig(srv.URL), infralogger.NewNop(), nil)
	require.NoError(t, err)

	app := &App{Client: client}
	res := searchHealthCheck(app)(context.Background())
	assert.Equal(t, infragin.HealthStatusHealthy, res.Status)

	srv.Close()
	res = searchHealthCheck(app)(context.Background())
	assert.Equal(t, infragin.HealthStatusUnhealthy, res.Status)
}
