//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/record/store/postgres"
	"github.com/marmos91/telebox/pkg/record/storetest"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("telebox_test"),
		tcpostgres.WithUsername("telebox_test"),
		tcpostgres.WithPassword("telebox_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	dsn, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) record.Store {
		ctx := context.Background()
		store, err := postgres.Open(ctx, postgres.Config{DSN: dsn, AutoMigrate: true})
		if err != nil {
			t.Fatalf("Open() = %v", err)
		}
		if err := store.Truncate(ctx); err != nil {
			t.Fatalf("Truncate() = %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := postgres.Config{DSN: dsn}

	v1, err := postgres.Migrate(ctx, cfg)
	if err != nil {
		t.Fatalf("Migrate() = %v", err)
	}
	v2, err := postgres.Migrate(ctx, cfg)
	if err != nil {
		t.Fatalf("second Migrate() = %v", err)
	}
	if v1 != v2 || v1 == 0 {
		t.Fatalf("versions = %d, %d", v1, v2)
	}
}
