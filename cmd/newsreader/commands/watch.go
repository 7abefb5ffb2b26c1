package commands

import (
	"github.com/spf13/cobra"

	"github.com/iTrooz/news-reader/internal/reader"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the news and reload whenever connectivity changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			monitor, err := c.newMonitor()
			if err != nil {
				return err
			}
			// The state found at startup is not a transition
			monitor.Check(ctx)
			changes := monitor.Subscribe()
			go monitor.Run(ctx)

			controller := c.newController(reader.NewConsole(cmd.OutOrStdout()), monitor)
			controller.Run(ctx, changes)
			return nil
		},
	}
}
