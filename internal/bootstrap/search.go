package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

// SetupAuthenticator picks the api-key or Entra ID strategy.
func SetupAuthenticator(cfg *config.Config) (searchapi.Authenticator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeEntra:
		auth, err := searchapi.NewEntraAuth(searchapi.EntraCredentialConfig{
			TenantID:     cfg.Auth.TenantID,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("entra auth: %w", err)
		}
		return auth, nil
	default:
		auth, err := searchapi.NewAPIKeyAuth(cfg.Auth.APIKey)
		if err != nil {
			return nil, fmt.Errorf("api-key auth: %w", err)
		}
		return auth, nil
	}
}

// SetupSearchClient creates the search service client.
func SetupSearchClient(cfg *config.Config, log infralogger.Logger, recorder searchapi.Recorder) (*searchapi.Client, error) {
	auth, err := SetupAuthenticator(cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Retry.MaxAttempts
	retryCfg.InitialDelay = cfg.Retry.InitialDelay
	retryCfg.MaxDelay = cfg.Retry.MaxDelay

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.FailureThreshold = cfg.Breaker.FailureThreshold
	breakerCfg.Timeout = cfg.Breaker.Timeout

	opts := []searchapi.Option{searchapi.WithLogger(log)}
	if recorder != nil {
		opts = append(opts, searchapi.WithRecorder(recorder))
	}

	client, err := searchapi.NewClient(searchapi.Config{
		Endpoint:            cfg.Search.Endpoint,
		APIVersion:          cfg.Search.APIVersion,
		Timeout:             cfg.Search.Timeout,
		ReachabilityTimeout: cfg.Search.ReachabilityTimeout,
		Retry:               retryCfg,
		Breaker:             breakerCfg,
		UserAgent:           cfg.Service.Name + "/" + cfg.Service.Version,
	}, auth, opts...)
	if err != nil {
		return nil, fmt.Errorf("search client: %w", err)
	}
	return client, nil
}
