package bootstrap

import (
	"context"
	"fmt"

	infraerrors "github.com/jonesrussell/north-cloud/aisearch/infrastructure/errors"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/database"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

// SetupDatabase creates a database connection.
func SetupDatabase(ctx context.Context, cfg *config.Config) (*database.Connection, error) {
	dbConfig := cfg.Database.Infra()
	db, err := database.NewConnection(ctx, &dbConfig)
	if err != nil {
		return nil, infraerrors.WrapWithContext(err, "database connection")
	}
	return db, nil
}

// SetupJournal connects, migrates and returns the operation journal. With the
// database disabled it returns a no-op journal and a nil connection.
func SetupJournal(ctx context.Context, cfg *config.Config, log infralogger.Logger) (service.Journal, *database.Connection, error) {
	if !cfg.Database.Enabled {
		log.Debug("Operation journal disabled")
		return service.NopJournal{}, nil, nil
	}

	db, err := SetupDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if migrateErr := database.MigrateUp(db.DB, log); migrateErr != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", migrateErr)
	}

	log.Info("Operation journal enabled",
		infralogger.String("host", cfg.Database.Host),
		infralogger.String("database", cfg.Database.Database),
	)
	return database.NewJournalRepository(db.DB), db, nil
}
