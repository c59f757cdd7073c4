// Package bootstrap handles application initialization and lifecycle management
// for the aisearch CLI and HTTP server.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/database"
	"github.com/jonesrussell/north-cloud/aisearch/internal/metrics"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

// Options adjust NewApp.
type Options struct {
	ConfigPath string
	// Debug forces debug logging regardless of config.
	Debug bool
	// SkipJournal leaves the database untouched even when it is enabled.
	SkipJournal bool
}

// App is the fully wired application shared by every command.
type App struct {
	Config  *config.Config
	Logger  infralogger.Logger
	Client  *searchapi.Client
	Metrics *metrics.Metrics
	DB      *database.Connection

	Indexers    *service.IndexerService
	DataSources *service.DataSourceService
	Indexes     *service.IndexService
	Diagnostics *service.DiagnosticsService
}

// NewApp loads configuration and wires every dependency.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(prometheus.NewRegistry()),
	}

	// Phase 2: Setup search client
	app.Client, err = SetupSearchClient(cfg, log, app.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to setup search client: %w", err)
	}
	log.Debug("Search client initialized",
		infralogger.String("endpoint", app.Client.Endpoint()),
		infralogger.String("api_version", app.Client.APIVersion()),
		infralogger.String("auth", app.Client.AuthScheme()),
	)

	// Phase 3: Setup journal
	var journal service.Journal = service.NopJournal{}
	if !opts.SkipJournal {
		journal, app.DB, err = SetupJournal(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to setup journal: %w", err)
		}
	}

	// Phase 4: Setup storage prober
	prober, err := SetupProber(cfg, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	// Phase 5: Setup services
	deps := service.Deps{
		Client:   app.Client,
		Journal:  journal,
		Observer: app.Metrics,
		Logger:   log,
	}
	app.Indexers = service.NewIndexerService(deps)
	app.DataSources = service.NewDataSourceService(deps)
	app.Indexes = service.NewIndexService(deps)
	app.Diagnostics = service.NewDiagnosticsService(deps, prober)

	return app, nil
}

// Close releases the database connection and flushes the logger.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", infralogger.Error(err))
		}
		a.DB = nil
	}
	_ = a.Logger.Sync()
}

// Start runs the HTTP server until ctx is cancelled or a signal arrives.
func Start(ctx context.Context, opts Options) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	if validationErr := app.Config.ValidateServer(); validationErr != nil {
		return fmt.Errorf("validate config: %w", validationErr)
	}

	app.Logger.Info("Starting aisearch HTTP server",
		infralogger.String("version", app.Config.Service.Version),
		infralogger.Int("port", app.Config.Service.Port),
		infralogger.String("endpoint", app.Client.Endpoint()),
	)

	server := SetupHTTPServer(app)
	if runErr := server.Run(ctx); runErr != nil {
		app.Logger.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	app.Logger.Info("aisearch HTTP server stopped")
	return nil
}
