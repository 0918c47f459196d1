package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-payments/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long: `Create the customers, payments and transactions tables.

Safe to run repeatedly. A no-op for the memory driver.

Examples:
  go-payments migrate --config payments.yaml
  PAYMENTS_DATABASE_DRIVER=postgres PAYMENTS_DATABASE_DSN=postgres://... go-payments migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			ctx := cmd.Context()
			st, err := store.Open(ctx, cfg.Database, l.Named("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return err
			}
			l.Info("Schema is up to date.", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
