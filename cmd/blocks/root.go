package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/blocks/internal/config"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Request classifier and dispatcher",
		Long: `blocks classifies incoming HTTP requests by URL format, path and mode,
and dispatches them to resource, action, control-panel or site handlers.

Settings come from the environment (BLOCKS_*, SERVER_*, REDIS_*, LOG_*)
and may be overridden by a YAML file passed with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newClassifyCmd(opts),
		newProbeCmd(opts),
	)

	return cmd
}
