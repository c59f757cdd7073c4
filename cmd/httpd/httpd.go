// Package httpd implements the HTTP server command.
package httpd

import (
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
)

// Command returns the httpd command for use in the root command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the control-plane operations over HTTP",
		Long: `Start the HTTP server. Routes live under /api/v1 and are protected by
JWT when service.jwt_secret is set. /health probes the search endpoint and
the journal database; /metrics exposes Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString(cmdcommon.FlagConfig)
			debug, _ := cmd.Flags().GetBool(cmdcommon.FlagDebug)
			return bootstrap.Start(cmd.Context(), bootstrap.Options{
				ConfigPath: configPath,
				Debug:      debug,
			})
		},
	}
}
