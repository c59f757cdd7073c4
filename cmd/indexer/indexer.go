// Package indexer implements the indexer subcommands.
package indexer

import (
	"github.com/spf13/cobra"
)

// Command returns the indexer command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "indexer",
		Aliases: []string{"indexers"},
		Short:   "Manage search indexers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		createCreateCmd(),
		createGetCmd(),
		createListCmd(),
		createDeleteCmd(),
		createRunCmd(),
		createResetCmd(),
		createStatusCmd(),
		createDiagnoseCmd(),
	)
	return cmd
}
