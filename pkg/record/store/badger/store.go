// Package badger implements record.Store on an embedded BadgerDB database.
// Records are JSON values under the "record:" key prefix.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/telebox/pkg/record"
)

const prefixRecord = "record:"

func keyRecord(handle string) []byte {
	return []byte(prefixRecord + handle)
}

// Config configures the badger store.
type Config struct {
	// Path is the database directory.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory runs badger without touching disk.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`
}

// Store is a record.Store backed by BadgerDB.
type Store struct {
	db *badgerdb.DB
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	opts := badgerdb.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	} else if cfg.Path == "" {
		return nil, errors.New("badger store requires a path")
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the record for handle.
func (s *Store) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec record.FileRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyRecord(handle))
		if err == badgerdb.ErrKeyNotFound {
			return record.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get record %q: %w", handle, err)
	}
	return &rec, nil
}

// Put upserts the record for handle.
func (s *Store) Put(ctx context.Context, handle string, rec *record.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(keyRecord(handle), data); err != nil {
			return fmt.Errorf("failed to store record %q: %w", handle, err)
		}
		return nil
	})
}

// List iterates the record prefix in key order.
func (s *Store) List(ctx context.Context, opts record.ListOptions) ([]record.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := opts.EffectiveLimit()
	var out []record.Entry

	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := []byte(prefixRecord)
		iterOpts := badgerdb.DefaultIteratorOptions
		iterOpts.Prefix = prefix

		it := txn.NewIterator(iterOpts)
		defer it.Close()

		start := prefix
		if opts.After != "" {
			start = keyRecord(opts.After)
		}

		for it.Seek(start); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			item := it.Item()
			handle := string(item.Key()[len(prefix):])
			if opts.After != "" && handle <= opts.After {
				continue
			}

			var rec record.FileRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode record %q: %w", handle, err)
			}
			out = append(out, record.Entry{Handle: handle, Record: &rec})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Healthcheck starts a read transaction, which fails once the DB is closed.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("healthcheck failed: database is closed")
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
