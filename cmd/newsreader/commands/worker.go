package commands

import (
	"github.com/spf13/cobra"

	"github.com/iTrooz/news-reader/internal/cache/assetstore"
	"github.com/iTrooz/news-reader/internal/worker"
)

func (c *CLI) newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the interception worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storage, err := assetstore.New(c.cfg.Worker.Store)
			if err != nil {
				return err
			}
			defer func() {
				if err := storage.Close(); err != nil {
					c.logger.Warnf("Failed to close store: %v", err)
				}
			}()

			server, err := worker.New(&c.cfg.Worker, storage, c.logger)
			if err != nil {
				return err
			}
			return server.Start(cmd.Context())
		},
	}
}
