// Package migrate implements the journal schema migration commands.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/aisearch/internal/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/database"
)

// Command returns the migrate command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the operation journal schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(conn *database.Connection, log infralogger.Logger) error {
				return database.MigrateDown(conn.DB, steps, log)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd, func(conn *database.Connection, log infralogger.Logger) error {
					return database.MigrateUp(conn.DB, log)
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd, func(conn *database.Connection, _ infralogger.Logger) error {
					version, dirty, err := database.MigrationVersion(conn.DB)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

// withDatabase connects without the search client, so migrations work before
// the search section is configured.
func withDatabase(cmd *cobra.Command, fn func(*database.Connection, infralogger.Logger) error) error {
	path, _ := cmd.Flags().GetString(cmdcommon.FlagConfig)
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug, _ := cmd.Flags().GetBool(cmdcommon.FlagDebug); debug {
		cfg.Logging.Level = "debug"
	}

	dbCfg := cfg.Database.Infra()
	if validateErr := dbCfg.Validate(); validateErr != nil {
		return fmt.Errorf("validate database config: %w", validateErr)
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	conn, err := bootstrap.SetupDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("Failed to close database connection", infralogger.Error(closeErr))
		}
	}()

	return fn(conn, log)
}
