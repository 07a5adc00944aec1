// Package postgres implements record.Store on PostgreSQL through a pgx pool.
// Schema is managed with golang-migrate from embedded migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/record"
)

// Store is a record.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	cfg  Config
}

// Open connects to PostgreSQL, applying migrations first when
// cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, cfg); err != nil {
			return nil, err
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if cfg.QueryTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%dms", cfg.QueryTimeout.Milliseconds())
	}

	logger.Info("Creating PostgreSQL connection pool",
		"host", cfg.Host,
		"database", cfg.Database,
		"max_conns", cfg.MaxConns,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &Store{pool: pool, cfg: cfg}, nil
}

const selectColumns = `list_type, label, time_stamp, liked, file_name, file_size, mime_type`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (*record.FileRecord, error) {
	var rec record.FileRecord
	var listType string
	dest := append(extra, &listType, &rec.Label, &rec.TimeStamp, &rec.Liked, &rec.FileName, &rec.FileSize, &rec.MimeType)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec.ListType = record.ListType(listType)
	return &rec, nil
}

// Get returns the record for handle.
func (s *Store) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM file_records WHERE handle = $1`, handle)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %q: %w", handle, err)
	}
	return rec, nil
}

// Put upserts the record for handle.
func (s *Store) Put(ctx context.Context, handle string, rec *record.FileRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO file_records (handle, list_type, label, time_stamp, liked, file_name, file_size, mime_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (handle) DO UPDATE SET
			list_type  = EXCLUDED.list_type,
			label      = EXCLUDED.label,
			time_stamp = EXCLUDED.time_stamp,
			liked      = EXCLUDED.liked,
			file_name  = EXCLUDED.file_name,
			file_size  = EXCLUDED.file_size,
			mime_type  = EXCLUDED.mime_type,
			updated_at = now()`,
		handle, string(rec.ListType), rec.Label, rec.TimeStamp, rec.Liked, rec.FileName, rec.FileSize, rec.MimeType,
	)
	if err != nil {
		return fmt.Errorf("failed to store record %q: %w", handle, err)
	}
	return nil
}

// List returns records ordered by handle.
func (s *Store) List(ctx context.Context, opts record.ListOptions) ([]record.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT handle, `+selectColumns+` FROM file_records WHERE handle > $1 ORDER BY handle LIMIT $2`,
		opts.After, opts.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []record.Entry
	for rows.Next() {
		var handle string
		rec, err := scanRecord(rows, &handle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, record.Entry{Handle: handle, Record: rec})
	}
	return out, rows.Err()
}

// Healthcheck pings the pool.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Truncate deletes every record. Used by integration tests.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE file_records`)
	return err
}
