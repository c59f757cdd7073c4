package bootstrap

import (
	infraerrors "github.com/jonesrussell/north-cloud/aisearch/infrastructure/errors"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
	"github.com/jonesrussell/north-cloud/aisearch/internal/storage"
)

// SetupProber returns the blob container prober, or nil when no storage
// credential is configured.
func SetupProber(cfg *config.Config, log infralogger.Logger) (service.ContainerProber, error) {
	if !cfg.Storage.Enabled() {
		return nil, nil //nolint:nilnil // diagnostics skip the storage check
	}

	prober, err := storage.NewContainerProber(storage.Config{
		ConnectionString: cfg.Storage.ConnectionString,
		AccountURL:       cfg.Storage.AccountURL,
		SampleSize:       cfg.Storage.SampleBlobs,
	}, log)
	if err != nil {
		return nil, infraerrors.WrapWithContextf(err, "storage prober for %s", storageTarget(cfg))
	}
	return prober, nil
}

// storageTarget names the configured account without exposing the key.
func storageTarget(cfg *config.Config) string {
	if cfg.Storage.AccountURL != "" {
		return cfg.Storage.AccountURL
	}
	return "connection string"
}
