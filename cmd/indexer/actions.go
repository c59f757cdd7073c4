package indexer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

func createGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Show an indexer definition",
		Args:  cobra.ExactArgs(1),
		RunE:  runGetCmd,
	}
}

func createListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all indexers",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func createDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an indexer",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCmd,
	}
	cmd.Flags().BoolP("force", "y", false, "delete without confirmation")
	return cmd
}

func createRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [name]",
		Short: "Start an indexer run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunCmd,
	}
}

func createResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [name]",
		Short: "Reset change tracking so the next run reindexes everything",
		Args:  cobra.ExactArgs(1),
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolP("force", "y", false, "reset without confirmation")
	return cmd
}

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show indexer execution status",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatusCmd,
	}
}

func createDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose [name]",
		Short: "Check an indexer's datasource, index, mappings and last run",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnoseCmd,
	}
}

func runGetCmd(cmd *cobra.Command, args []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	ix, err := deps.App.Indexers.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return deps.Printer.Render(ix, func() error {
		printIndexer(deps.Printer, ix)
		return nil
	})
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	list, err := deps.App.Indexers.List(cmd.Context())
	if err != nil {
		return err
	}
	return deps.Printer.Render(list, func() error {
		if len(list) == 0 {
			deps.Printer.Message("No indexers found")
			return nil
		}
		rows := make([]table.Row, 0, len(list))
		for _, ix := range list {
			rows = append(rows, table.Row{ix.Name, ix.DataSourceName, ix.TargetIndexName, disabledLabel(ix.Disabled)})
		}
		deps.Printer.Table(table.Row{"Name", "Datasource", "Target Index", "State"}, rows)
		return nil
	})
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if err := cmdcommon.Confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete indexer %s?", args[0]), force); err != nil {
		return err
	}

	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	if deleteErr := deps.App.Indexers.Delete(cmd.Context(), args[0]); deleteErr != nil {
		return deleteErr
	}
	deps.Printer.Message("Deleted indexer %s", args[0])
	return nil
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	if runErr := deps.App.Indexers.Run(cmd.Context(), args[0]); runErr != nil {
		return runErr
	}
	deps.Printer.Message("Started indexer %s; check progress with: indexer status %s", args[0], args[0])
	return nil
}

func runResetCmd(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	prompt := fmt.Sprintf("Reset indexer %s? The next run reprocesses every document.", args[0])
	if err := cmdcommon.Confirm(cmd.OutOrStdout(), prompt, force); err != nil {
		return err
	}

	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	if resetErr := deps.App.Indexers.Reset(cmd.Context(), args[0]); resetErr != nil {
		return resetErr
	}
	deps.Printer.Message("Reset indexer %s", args[0])
	return nil
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	st, err := deps.App.Indexers.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return deps.Printer.Render(st, func() error {
		printStatus(deps.Printer, st)
		return nil
	})
}

func runDiagnoseCmd(cmd *cobra.Command, args []string) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{SkipJournal: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	diag, err := deps.App.Diagnostics.DiagnoseIndexer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return deps.Printer.Diagnosis(diag)
}

func printIndexer(p *cmdcommon.Printer, ix *domain.Indexer) {
	mappings := make([]string, 0, len(ix.FieldMappings))
	for _, m := range ix.FieldMappings {
		mappings = append(mappings, m.SourceFieldName+" -> "+cmdcommon.OrDash(m.TargetFieldName))
	}
	schedule := "-"
	if ix.Schedule != nil {
		schedule = ix.Schedule.Interval
	}
	p.KeyValues([][2]string{
		{"Name", ix.Name},
		{"Datasource", ix.DataSourceName},
		{"Target index", ix.TargetIndexName},
		{"Skillset", cmdcommon.OrDash(ix.SkillsetName)},
		{"Schedule", schedule},
		{"Field mappings", cmdcommon.JoinOrDash(mappings)},
		{"State", disabledLabel(ix.Disabled)},
	})
}

func printStatus(p *cmdcommon.Printer, st *domain.IndexerStatus) {
	pairs := [][2]string{{"Status", st.Status}}
	if r := st.LastResult; r != nil {
		pairs = append(pairs,
			[2]string{"Last run", r.Status},
			[2]string{"Started", formatTime(r.StartTime)},
			[2]string{"Ended", formatTime(r.EndTime)},
			[2]string{"Processed", strconv.Itoa(r.ItemsProcessed)},
			[2]string{"Failed", strconv.Itoa(r.ItemsFailed)},
		)
		if r.ErrorMessage != "" {
			pairs = append(pairs, [2]string{"Error", r.ErrorMessage})
		}
	}
	p.KeyValues(pairs)

	if st.LastResult != nil && len(st.LastResult.Errors) > 0 {
		rows := make([]table.Row, 0, len(st.LastResult.Errors))
		for _, issue := range st.LastResult.Errors {
			rows = append(rows, table.Row{cmdcommon.OrDash(issue.Key), issue.Text()})
		}
		p.Table(table.Row{"Item", "Error"}, rows)
	}
}

func disabledLabel(disabled *bool) string {
	if disabled != nil && *disabled {
		return "disabled"
	}
	return "enabled"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
