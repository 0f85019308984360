package cli

import (
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-mdio/mdio"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <output.sgy>",
		Short: "Write a store back to an exchange file in original order",
		Long: `Reconstruct the exchange file from a finalized store: the preserved
file prefix, every trace's header fields and samples, in ascending original
trace order.

Example:
  mdio export -c survey.yaml --sample-format ibm32 restored.sgy`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			log, err := rootOpts.logger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			s, err := mdio.Open(cmd.Context(), cfg.Target, mdio.WithLogger(log))
			if err != nil {
				return err
			}
			return mdio.ToSegy(cmd.Context(), s, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "sample-format", "", "output sample format (ibm32|ieee32); default is the source format")
	return cmd
}
