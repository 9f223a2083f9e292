package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "duecall",
		Short: "Phone reminders for overdue tasks",
		Long: `duecall finds overdue pending tasks and calls each owner through the
configured telephony gateway, most urgent first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a config file (default: ./config.yaml when present)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newRunOnceCmd(opts))

	return rootCmd
}
