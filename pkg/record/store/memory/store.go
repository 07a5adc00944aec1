// Package memory implements an in-process record.Store. Records are lost on
// restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/telebox/pkg/record"
)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]record.FileRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]record.FileRecord)}
}

// Get returns a copy of the record for handle.
func (s *Store) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[handle]
	if !ok {
		return nil, record.ErrNotFound
	}
	return &rec, nil
}

// Put stores a copy of rec under handle.
func (s *Store) Put(ctx context.Context, handle string, rec *record.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[handle] = *rec
	return nil
}

// List returns records ordered by handle.
func (s *Store) List(ctx context.Context, opts record.ListOptions) ([]record.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	handles := make([]string, 0, len(s.records))
	for h := range s.records {
		if h > opts.After {
			handles = append(handles, h)
		}
	}
	sort.Strings(handles)

	if limit := opts.EffectiveLimit(); len(handles) > limit {
		handles = handles[:limit]
	}

	out := make([]record.Entry, len(handles))
	for i, h := range handles {
		rec := s.records[h]
		out[i] = record.Entry{Handle: h, Record: &rec}
	}
	return out, nil
}

// Healthcheck always succeeds unless ctx is done.
func (s *Store) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
