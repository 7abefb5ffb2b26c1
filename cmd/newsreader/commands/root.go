// Package commands implements the newsreader command line
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iTrooz/news-reader/internal/config"
)

// DefaultConfigPath is read when --config is not given and the file exists
const DefaultConfigPath = "configs/config.yaml"

// CLI represents the newsreader command line
type CLI struct {
	rootCmd *cobra.Command

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
}

// New creates the command tree
func New() *CLI {
	c := &CLI{}

	rootCmd := &cobra.Command{
		Use:               "newsreader",
		Short:             "Read news from the backend, through a cache that survives going offline",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", DefaultConfigPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (overrides log.level)")

	rootCmd.AddCommand(c.newFetchCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newWorkerCmd())
	rootCmd.AddCommand(c.newConfigCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// setup loads the configuration and builds the logger shared by every command
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path := c.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.GetLogLevel()
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(level)

	c.cfg = cfg
	c.logger = logger
	return nil
}
