// Package cli wires the mdio commands: import, export and info, all driven
// by a YAML config naming the store target and the header field layout.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the mdio root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mdio",
		Short: "Convert seismic exchange files to and from chunked stores",
		Long: `mdio ingests flat seismic exchange files into chunked, randomly
sliceable multidimensional stores, and exports them back losslessly in
original trace order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "mdio.yaml", "path to config file")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))

	return cmd
}

// logger builds a console logger at the verbosity the flags ask for.
func (o *RootOptions) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
