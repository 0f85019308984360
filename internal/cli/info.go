package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-mdio/mdio"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "info",
		Short:         "Describe a store's grid and status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			s, err := mdio.Open(cmd.Context(), cfg.Target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:      %s\n", s.ID())
			format, endian := s.SourceFormat()
			fmt.Fprintf(out, "Source:     %s (%s endian)\n", format, endian)
			fmt.Fprintf(out, "Traces:     %d\n", s.TraceCount())
			fmt.Fprintf(out, "Finalized:  %v\n", s.Finalized())
			fmt.Fprintln(out, "Dimensions:")
			for _, d := range s.Grid().Dims() {
				fmt.Fprintf(out, "  %-12s %6d coords  [%d .. %d]\n", d.Name, d.Len(), d.Min(), d.Max())
			}
			return nil
		},
	}
}
