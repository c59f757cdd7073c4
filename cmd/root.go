// Package cmd implements the aisearch command-line interface.
package cmd

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aisearch/cmd/check"
	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/datasource"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/history"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/httpd"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/index"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/indexer"
	"github.com/jonesrussell/north-cloud/aisearch/cmd/migrate"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=v1.2.3".
var Version = ""

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "aisearch",
		Short: "Manage search indexers, datasources and indexes",
		Long: `aisearch drives the search service control plane: create and replace
indexers, inspect and test datasources, read index schemas, and diagnose
why an indexer or datasource is not working.

Configuration is read from config.yml (or CONFIG_PATH), .env and the
environment; see config.yml.example.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().String(cmdcommon.FlagConfig, "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().Bool(cmdcommon.FlagDebug, false, "enable debug logging, including redacted request traces")
	root.PersistentFlags().StringP(cmdcommon.FlagOutput, "o", cmdcommon.FormatTable, "output format: table or json")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "aisearch version %s\n", buildVersion())
		},
	})

	root.AddCommand(
		indexer.Command(),
		datasource.Command(),
		index.Command(),
		check.Command(),
		history.Command(),
		migrate.Command(),
		httpd.Command(),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func buildVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
