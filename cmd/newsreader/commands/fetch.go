package commands

import (
	"github.com/spf13/cobra"

	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/reader"
)

func (c *CLI) newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and print the news once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			offline, _ := cmd.Flags().GetBool("offline")

			var connectivity network.Connectivity
			if offline {
				connectivity = network.NewStatic(false)
			} else {
				monitor, err := c.newMonitor()
				if err != nil {
					return err
				}
				monitor.Check(cmd.Context())
				connectivity = monitor
			}

			controller := c.newController(reader.NewConsole(cmd.OutOrStdout()), connectivity)
			return controller.LoadData(cmd.Context(), !noCache)
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the response cache")
	cmd.Flags().Bool("offline", false, "Behave as if there was no network connection")
	return cmd
}
