package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/config"
	"github.com/marmos91/telebox/pkg/record/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run record store migrations",
	Long: `Apply pending schema migrations to the configured record store.

The postgres store uses versioned migrations and is required after upgrades
when auto_migrate is disabled. The sql store migrates its table. Other
stores have no schema and nothing to do.

Examples:
  telebox migrate
  telebox migrate --config /etc/telebox/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	logger.Info("Running record store migrations", logger.StoreType(cfg.Store.Type))

	switch cfg.Store.Type {
	case "postgres":
		pc, err := config.PostgresConfig(cfg.Store)
		if err != nil {
			return err
		}
		version, err := postgres.Migrate(ctx, pc)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Migrations completed successfully (store: postgres, version: %d)\n", version)
	case "sql":
		// Opening the sql store migrates it.
		store, err := config.CreateStore(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		_ = store.Close()
		fmt.Println("Migrations completed successfully (store: sql)")
	default:
		fmt.Printf("Store type %q has no schema to migrate\n", cfg.Store.Type)
	}
	return nil
}
