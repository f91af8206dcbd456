package main

import (
	"github.com/spf13/cobra"

	"telegram-scraper-bot/internal/config"
)

type rootOptions struct {
	configPath string
	dev        bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "scraper-bot",
		Short:         "Telegram shop search bot",
		Long:          "scraper-bot runs the Telegram shop search bot, queries a single store from the terminal and mints admin API tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "enable developer mode (console logs, unredacted queries)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.LoadConfig(o.configPath, o.dev)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(version + " (" + commit + ")\n"))
			return err
		},
	}
}
