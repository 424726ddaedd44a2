package main

import (
	"github.com/spf13/cobra"

	"inheritx/internal/platform/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "inheritx",
		Short: "Digital inheritance registry",
		Long: `inheritx keeps one owner's beneficiary ledger and encrypted will pointer,
and freezes both for good once death is confirmed.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (INHERITX_* env vars override it)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	serve := newServeCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(serve, newTokenCmd(load), newMigrateCmd(load))
	return root
}
