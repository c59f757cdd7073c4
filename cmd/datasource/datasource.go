// Package datasource implements the datasource subcommands.
package datasource

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

// Command returns the datasource command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasource",
		Aliases: []string{"datasources", "ds"},
		Short:   "Manage search datasources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		createGetCmd(),
		createListCmd(),
		createCreateCmd(),
		createDeleteCmd(),
		createTestCmd(),
		createDiagnoseCmd(),
	)
	return cmd
}

func createGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Show a datasource definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
			if err != nil {
				return err
			}
			defer deps.Close()

			ds, err := deps.App.DataSources.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return deps.Printer.Render(ds, func() error {
				printDataSource(deps.Printer, ds)
				return nil
			})
		},
	}
}

func createListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all datasources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
			if err != nil {
				return err
			}
			defer deps.Close()

			list, err := deps.App.DataSources.List(cmd.Context())
			if err != nil {
				return err
			}
			return deps.Printer.Render(list, func() error {
				if len(list) == 0 {
					deps.Printer.Message("No datasources found")
					return nil
				}
				rows := make([]table.Row, 0, len(list))
				for _, ds := range list {
					rows = append(rows, table.Row{ds.Name, ds.Type, containerName(&ds)})
				}
				deps.Printer.Table(table.Row{"Name", "Type", "Container"}, rows)
				return nil
			})
		},
	}
}

// createParams holds the create command flags.
type createParams struct {
	container        string
	query            string
	connectionString string
	definitionFile   string
}

func createCreateCmd() *cobra.Command {
	var p createParams
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create or replace a blob datasource",
		Long: `Create or replace an azureblob datasource.

The connection string defaults to storage.connection_string from the config
file (AZURE_STORAGE_CONNECTION_STRING). Use --file to send any other
datasource type as a JSON definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateCmd(cmd, args[0], p)
		},
	}
	cmd.Flags().StringVar(&p.container, "container", "", "blob container to index")
	cmd.Flags().StringVar(&p.query, "query", "", "virtual folder prefix inside the container")
	cmd.Flags().StringVar(&p.connectionString, "connection-string", "", "storage connection string")
	cmd.Flags().StringVarP(&p.definitionFile, "file", "f", "", "JSON datasource definition")
	return cmd
}

func runCreateCmd(cmd *cobra.Command, name string, p createParams) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	var ds *domain.DataSource
	if p.definitionFile != "" {
		def, readErr := readDefinition(p.definitionFile)
		if readErr != nil {
			return readErr
		}
		if def.Name == "" {
			def.Name = name
		}
		ds, err = deps.App.DataSources.Put(cmd.Context(), def)
	} else {
		connStr := p.connectionString
		if connStr == "" {
			connStr = deps.App.Config.Storage.ConnectionString
		}
		ds, err = deps.App.DataSources.CreateBlob(cmd.Context(), service.CreateBlobDataSourceRequest{
			Name:             name,
			ConnectionString: connStr,
			Container:        p.container,
			Query:            p.query,
		})
	}
	if err != nil {
		return err
	}

	return deps.Printer.Render(ds, func() error {
		deps.Printer.Message("Saved datasource %s", ds.Name)
		printDataSource(deps.Printer, ds)
		return nil
	})
}

func createDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a datasource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if err := cmdcommon.Confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete datasource %s?", args[0]), force); err != nil {
				return err
			}

			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer deps.Close()

			if deleteErr := deps.App.DataSources.Delete(cmd.Context(), args[0]); deleteErr != nil {
				return deleteErr
			}
			deps.Printer.Message("Deleted datasource %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("force", "y", false, "delete without confirmation")
	return cmd
}

func createTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [name]",
		Short: "Ask the service to validate a datasource connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
			if err != nil {
				return err
			}
			defer deps.Close()

			res, err := deps.App.DataSources.Test(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return deps.Printer.Render(res, func() error {
				deps.Printer.Message("Datasource %s connection test passed (status %d)", args[0], res.StatusCode)
				return nil
			})
		},
	}
}

func createDiagnoseCmd() *cobra.Command {
	var opts service.DiagnoseOptions
	cmd := &cobra.Command{
		Use:   "diagnose [name]",
		Short: "Check a datasource definition, credentials, connection and container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
			if err != nil {
				return err
			}
			defer deps.Close()

			diag, err := deps.App.Diagnostics.DiagnoseDatasource(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return deps.Printer.Diagnosis(diag)
		},
	}
	cmd.Flags().BoolVar(&opts.SkipTest, "skip-test", false, "do not call the connection test endpoint")
	cmd.Flags().BoolVar(&opts.SkipStorage, "skip-storage", false, "do not inspect the blob container")
	return cmd
}

func readDefinition(path string) (*domain.DataSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	var ds domain.DataSource
	if unmarshalErr := json.Unmarshal(raw, &ds); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse definition %s: %w", path, unmarshalErr)
	}
	return &ds, nil
}

func printDataSource(p *cmdcommon.Printer, ds *domain.DataSource) {
	query := "-"
	if ds.Container != nil {
		query = cmdcommon.OrDash(ds.Container.Query)
	}
	p.KeyValues([][2]string{
		{"Name", ds.Name},
		{"Type", ds.Type},
		{"Container", containerName(ds)},
		{"Query", query},
		{"Credentials", credentialsLabel(ds)},
	})
}

func containerName(ds *domain.DataSource) string {
	if ds.Container == nil {
		return "-"
	}
	return cmdcommon.OrDash(ds.Container.Name)
}

func credentialsLabel(ds *domain.DataSource) string {
	switch {
	case ds.Credentials == nil:
		return "none"
	case ds.Credentials.ConnectionString == nil:
		return "redacted by service"
	default:
		return "set"
	}
}
