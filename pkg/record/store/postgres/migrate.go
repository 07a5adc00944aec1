package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/record/store/postgres/migrations"
)

const migrationsTable = "telebox_schema_migrations"

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations. golang-migrate takes an advisory
// lock so concurrent instances are safe.
func Migrate(ctx context.Context, cfg Config) (version uint, err error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return 0, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := newMigrate(db)
	if err != nil {
		return 0, err
	}

	logger.Info("Applying record store migrations", logger.StoreType("postgres"))
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Record store schema is up to date")
	case err != nil:
		return 0, fmt.Errorf("migration failed: %w", err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		logger.Warn("Record store schema is dirty, manual intervention may be required", "version", v)
	}
	return v, nil
}
