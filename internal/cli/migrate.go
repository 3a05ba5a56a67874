package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"elaview/internal/infra/config"
	"elaview/internal/infra/db/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s, got %q", config.DriverPostgres, cfg.StorageDriver)
			}
			pool, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			logger.Info("schema migrated")
			return nil
		},
	}
}
