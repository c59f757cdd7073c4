// Package check implements the connectivity check command.
package check

import (
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
)

// Command returns the check command for use in the root command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the search service is reachable and accepts the credentials",
		Long: `Check probes the configured endpoint, then lists indexes to verify the
credentials and reads service statistics to flag exhausted quotas. An
unreachable endpoint and a rejected key are reported separately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
			if err != nil {
				return err
			}
			defer deps.Close()

			deps.Printer.Message("Endpoint: %s (api-version %s, auth %s)",
				deps.App.Client.Endpoint(), deps.App.Client.APIVersion(), deps.App.Client.AuthScheme())

			diag, err := deps.App.Diagnostics.CheckConnectivity(cmd.Context())
			if err != nil {
				return err
			}
			return deps.Printer.Diagnosis(diag)
		},
	}
}
