// Package history implements the operation journal listing.
package history

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
)

// Command returns the history command for use in the root command
func Command() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent mutating operations from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer deps.Close()

			if !deps.App.Config.Database.Enabled {
				deps.Printer.Message("Operation journal is disabled; set database.enabled to record history")
				return nil
			}
			if limit <= 0 {
				limit = deps.App.Config.Database.HistoryLimit
			}

			ops, err := deps.App.Indexers.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return deps.Printer.Render(ops, func() error {
				rows := make([]table.Row, 0, len(ops))
				for _, op := range ops {
					rows = append(rows, table.Row{
						strconv.FormatInt(op.ID, 10),
						op.CreatedAt.Local().Format(time.DateTime),
						string(op.Type),
						op.ResourceName,
						string(op.Status),
						cmdcommon.OrDash(op.ErrorMessage),
					})
				}
				deps.Printer.Table(table.Row{"ID", "When", "Operation", "Resource", "Status", "Error"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default database.history_limit)")
	return cmd
}
