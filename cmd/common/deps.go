// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aisearch/internal/bootstrap"
)

// Names of the persistent flags registered on the root command.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
	FlagOutput = "output"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	App     *bootstrap.App
	Printer *Printer
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.App == nil {
		return ErrAppRequired
	}
	if d.Printer == nil {
		return ErrPrinterRequired
	}
	return nil
}

// Close releases the application resources.
func (d CommandDeps) Close() {
	if d.App != nil {
		d.App.Close()
	}
}

// NewCommandDeps wires the application from the root persistent flags.
func NewCommandDeps(cmd *cobra.Command, opts bootstrap.Options) (CommandDeps, error) {
	printer, err := printerFromFlags(cmd, cmd.OutOrStdout())
	if err != nil {
		return CommandDeps{}, err
	}

	opts.ConfigPath, _ = cmd.Flags().GetString(FlagConfig)
	opts.Debug, _ = cmd.Flags().GetBool(FlagDebug)

	app, err := bootstrap.NewApp(cmd.Context(), opts)
	if err != nil {
		return CommandDeps{}, err
	}

	deps := CommandDeps{App: app, Printer: printer}
	if validateErr := deps.Validate(); validateErr != nil {
		deps.Close()
		return CommandDeps{}, fmt.Errorf("%w: %w", ErrInvalidDeps, validateErr)
	}
	return deps, nil
}

func printerFromFlags(cmd *cobra.Command, w io.Writer) (*Printer, error) {
	format, _ := cmd.Flags().GetString(FlagOutput)
	return NewPrinter(w, format)
}
