package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"inheritx/internal/audit"
	"inheritx/internal/platform/config"
	"inheritx/internal/platform/postgres"
	"inheritx/internal/registry/store"
)

func newMigrateCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema for registries and audit events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("postgres.url (INHERITX_DATABASE_URL) is required")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx, db); err != nil {
				return err
			}
			if err := audit.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
