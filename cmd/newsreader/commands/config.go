package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *CLI) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(c.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
