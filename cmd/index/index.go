// Package index implements the read-only index subcommands.
package index

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// Command returns the index command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "index",
		Aliases: []string{"indexes"},
		Short:   "Inspect search indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(createGetCmd(), createListCmd())
	return cmd
}

func createGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Show an index schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runGetCmd,
	}
}

func createListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all indexes",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func runGetCmd(cmd *cobra.Command, args []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	idx, err := deps.App.Indexes.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return deps.Printer.Render(idx, func() error {
		deps.Printer.Message("Index %s (key: %s)", idx.Name, cmdcommon.OrDash(idx.KeyField()))
		rows := make([]table.Row, 0, len(idx.Fields))
		for _, f := range idx.Fields {
			rows = append(rows, table.Row{f.Name, f.Type, yesNo(f.Key), flag(f.Searchable), flag(f.Filterable)})
		}
		deps.Printer.Table(table.Row{"Field", "Type", "Key", "Searchable", "Filterable"}, rows)
		return nil
	})
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	list, err := deps.App.Indexes.List(cmd.Context())
	if err != nil {
		return err
	}
	return deps.Printer.Render(list, func() error {
		if len(list) == 0 {
			deps.Printer.Message("No indexes found")
			return nil
		}
		rows := make([]table.Row, 0, len(list))
		for i := range list {
			rows = append(rows, table.Row{list[i].Name, strconv.Itoa(len(list[i].Fields)), keyOf(&list[i])})
		}
		deps.Printer.Table(table.Row{"Name", "Fields", "Key"}, rows)
		return nil
	})
}

func keyOf(idx *domain.Index) string {
	return cmdcommon.OrDash(idx.KeyField())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// flag renders an optional attribute; the service omits unset ones.
func flag(b *bool) string {
	if b == nil {
		return "-"
	}
	return yesNo(*b)
}
