// Package redis implements record.Store on Redis. Each record is a JSON
// string under "<prefix><handle>" with no expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/telebox/pkg/record"
)

// Config configures the redis store.
type Config struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	Username     string        `mapstructure:"username" yaml:"username,omitempty"`
	Password     string        `mapstructure:"password" yaml:"password,omitempty"`
	DB           int           `mapstructure:"db" yaml:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "telebox:record:"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Store is a record.Store backed by Redis.
type Store struct {
	client client
	prefix string
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	c, err := newGoRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newStore(c, cfg.KeyPrefix), nil
}

func newStore(c client, prefix string) *Store {
	return &Store{client: c, prefix: prefix}
}

func (s *Store) key(handle string) string {
	return s.prefix + handle
}

// Get returns the record for handle.
func (s *Store) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	data, err := s.client.Get(ctx, s.key(handle))
	if errors.Is(err, errNil) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %q: %w", handle, err)
	}

	var rec record.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %q: %w", handle, err)
	}
	return &rec, nil
}

// Put upserts the record for handle.
func (s *Store) Put(ctx context.Context, handle string, rec *record.FileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(handle), data); err != nil {
		return fmt.Errorf("failed to store record %q: %w", handle, err)
	}
	return nil
}

// List scans the key prefix, sorts handles, then fetches one page with MGET.
func (s *Store) List(ctx context.Context, opts record.ListOptions) ([]record.Entry, error) {
	keys, err := s.client.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	handles := make([]string, 0, len(keys))
	for _, k := range keys {
		if h := strings.TrimPrefix(k, s.prefix); h > opts.After {
			handles = append(handles, h)
		}
	}
	sort.Strings(handles)
	if limit := opts.EffectiveLimit(); len(handles) > limit {
		handles = handles[:limit]
	}
	if len(handles) == 0 {
		return nil, nil
	}

	pageKeys := make([]string, len(handles))
	for i, h := range handles {
		pageKeys[i] = s.key(h)
	}
	values, err := s.client.MGet(ctx, pageKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	out := make([]record.Entry, 0, len(handles))
	for i, data := range values {
		if data == nil {
			continue
		}
		var rec record.FileRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %q: %w", handles[i], err)
		}
		out = append(out, record.Entry{Handle: handles[i], Record: &rec})
	}
	return out, nil
}

// Healthcheck sends PING.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
