package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mdio/mdio"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <source.sgy>",
		Short: "Ingest an exchange file into a chunked store",
		Long: `Scan the exchange file's trace headers, apply any configured grid
overrides, build the grid and populate the store's chunks in parallel.

Example:
  mdio import -c survey.yaml shots.sgy`,
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

			opts := []mdio.Option{mdio.WithLogger(log), mdio.WithFilter(cfg.Filter)}
			if cfg.ChunkShape != nil {
				opts = append(opts, mdio.WithChunkShape(cfg.ChunkShape))
			}
			if cfg.Workers > 0 {
				opts = append(opts, mdio.WithWorkers(cfg.Workers))
			}

			s, err := mdio.FromSegy(cmd.Context(), args[0], cfg.Target, cfg.Import, opts...)
			if err != nil {
				return err
			}
			log.Info("store ready", zap.String("id", s.ID()))
			return nil
		},
	}
}
