// Package sql implements record.Store with GORM on SQLite or PostgreSQL.
// The schema is created with AutoMigrate.
package sql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/telebox/pkg/record"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config configures the GORM store.
type Config struct {
	Dialect Dialect `mapstructure:"dialect" yaml:"dialect"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
}

// Validate checks the configuration after ApplyDefaults.
func (c *Config) Validate() error {
	switch c.Dialect {
	case DialectSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DialectPostgres:
		if c.DSN == "" {
			return fmt.Errorf("postgres dsn is required")
		}
	default:
		return fmt.Errorf("unsupported sql dialect: %s", c.Dialect)
	}
	return nil
}

// fileRecord is the GORM model of record.FileRecord.
type fileRecord struct {
	Handle    string `gorm:"primaryKey;size:512"`
	ListType  string `gorm:"size:16;not null;index"`
	Label     string `gorm:"size:64;not null"`
	TimeStamp int64  `gorm:"not null"`
	Liked     bool   `gorm:"not null"`
	FileName  string `gorm:"not null"`
	FileSize  int64  `gorm:"not null"`
	MimeType  string
	UpdatedAt time.Time
}

func (fileRecord) TableName() string { return "file_records" }

func fromRecord(handle string, rec *record.FileRecord) *fileRecord {
	return &fileRecord{
		Handle:    handle,
		ListType:  string(rec.ListType),
		Label:     rec.Label,
		TimeStamp: rec.TimeStamp,
		Liked:     rec.Liked,
		FileName:  rec.FileName,
		FileSize:  rec.FileSize,
		MimeType:  rec.MimeType,
	}
}

func (m *fileRecord) toRecord() *record.FileRecord {
	return &record.FileRecord{
		ListType:  record.ListType(m.ListType),
		Label:     m.Label,
		TimeStamp: m.TimeStamp,
		Liked:     m.Liked,
		FileName:  m.FileName,
		FileSize:  m.FileSize,
		MimeType:  m.MimeType,
	}
}

// Store is a record.Store backed by GORM.
type Store struct {
	db *gorm.DB
}

// Open connects and runs AutoMigrate.
func Open(cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sql store configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets readers proceed during a write; busy_timeout waits out locks.
		dialector = sqlite.Open(cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate creates or updates the file_records table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&fileRecord{}); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	return nil
}

// Get returns the record for handle.
func (s *Store) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	var m fileRecord
	err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %q: %w", handle, err)
	}
	return m.toRecord(), nil
}

// Put upserts the record for handle.
func (s *Store) Put(ctx context.Context, handle string, rec *record.FileRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		UpdateAll: true,
	}).Create(fromRecord(handle, rec)).Error
	if err != nil {
		return fmt.Errorf("failed to store record %q: %w", handle, err)
	}
	return nil
}

// List returns records ordered by handle.
func (s *Store) List(ctx context.Context, opts record.ListOptions) ([]record.Entry, error) {
	var models []fileRecord
	err := s.db.WithContext(ctx).
		Where("handle > ?", opts.After).
		Order("handle").
		Limit(opts.EffectiveLimit()).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]record.Entry, len(models))
	for i := range models {
		out[i] = record.Entry{Handle: models[i].Handle, Record: models[i].toRecord()}
	}
	return out, nil
}

// Healthcheck pings the underlying database.
func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the GORM handle for the migrate command.
func (s *Store) DB() *gorm.DB {
	return s.db
}
