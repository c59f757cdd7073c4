package indexer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/north-cloud/aisearch/cmd/common"
	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

// createParams holds the create command flags.
type createParams struct {
	dataSource     string
	targetIndex    string
	definitionFile string
	replace        bool
	minimal        bool
	preflight      bool
}

func createCreateCmd() *cobra.Command {
	var p createParams
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an indexer, optionally replacing an existing one",
		Long: `Create an indexer that pulls from a datasource into a target index.

The command first checks whether an indexer with the same name exists. With
--replace the existing indexer is deleted before the new definition is sent;
without it the command fails. Datasource, index and the replace, minimal and
preflight switches default to the indexer section of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateCmd(cmd, args[0], p)
		},
	}
	cmd.Flags().StringVar(&p.dataSource, "datasource", "", "datasource name (default from config)")
	cmd.Flags().StringVar(&p.targetIndex, "index", "", "target index name (default from config)")
	cmd.Flags().StringVarP(&p.definitionFile, "file", "f", "", "JSON indexer definition to send instead of the generated one")
	cmd.Flags().BoolVar(&p.replace, "replace", false, "delete an existing indexer with the same name first")
	cmd.Flags().BoolVar(&p.minimal, "minimal", false, "map only the key field and send no parameters")
	cmd.Flags().BoolVar(&p.preflight, "preflight", false, "verify the datasource and target index exist first")
	return cmd
}

func runCreateCmd(cmd *cobra.Command, name string, p createParams) error {
	deps, err := cmdcommon.NewCommandDeps(cmd, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	defaults := deps.App.Config.Indexer
	req := service.CreateIndexerRequest{
		Name:        name,
		DataSource:  firstNonEmpty(p.dataSource, defaults.DataSource),
		TargetIndex: firstNonEmpty(p.targetIndex, defaults.TargetIndex),
		Replace:     flagOr(cmd, "replace", p.replace, defaults.Replace),
		Minimal:     flagOr(cmd, "minimal", p.minimal, defaults.Minimal),
		Preflight:   flagOr(cmd, "preflight", p.preflight, defaults.Preflight),
	}

	if p.definitionFile != "" {
		def, readErr := readDefinition(p.definitionFile)
		if readErr != nil {
			return readErr
		}
		// Config defaults only fill gaps in the file; explicit flags must agree with it.
		def.DataSourceName = firstNonEmpty(def.DataSourceName, p.dataSource, defaults.DataSource)
		def.TargetIndexName = firstNonEmpty(def.TargetIndexName, p.targetIndex, defaults.TargetIndex)
		req.DataSource = p.dataSource
		req.TargetIndex = p.targetIndex
		req.Definition = def
	}

	res, err := deps.App.Indexers.Create(cmd.Context(), req)
	if err != nil {
		return err
	}

	return deps.Printer.Render(res, func() error {
		verb := "Created"
		if res.Replaced {
			verb = "Replaced"
		}
		deps.Printer.Message("%s indexer %s", verb, res.Indexer.Name)
		printIndexer(deps.Printer, res.Indexer)
		return nil
	})
}

func readDefinition(path string) (*domain.Indexer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	var ix domain.Indexer
	if unmarshalErr := json.Unmarshal(raw, &ix); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse definition %s: %w", path, unmarshalErr)
	}
	return &ix, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// flagOr prefers an explicitly set flag over the configured default.
func flagOr(cmd *cobra.Command, name string, value, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
