package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/record/store/badger"
	"github.com/marmos91/telebox/pkg/record/store/memory"
	"github.com/marmos91/telebox/pkg/record/store/postgres"
	redisstore "github.com/marmos91/telebox/pkg/record/store/redis"
	sqlstore "github.com/marmos91/telebox/pkg/record/store/sql"
)

// CreateStore opens the record store selected by cfg.Type. Type "none"
// returns a nil store: retrieval then serves everything unchecked.
func CreateStore(ctx context.Context, cfg StoreConfig) (record.Store, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "memory", "":
		return memory.New(), nil
	case "badger":
		var bc badger.Config
		if err := decodeStoreConfig(cfg.Badger, &bc); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}
		return opened(badger.Open(bc))
	case "postgres":
		pc, err := PostgresConfig(cfg)
		if err != nil {
			return nil, err
		}
		return opened(postgres.Open(ctx, pc))
	case "sql":
		var sc sqlstore.Config
		if err := decodeStoreConfig(cfg.SQL, &sc); err != nil {
			return nil, fmt.Errorf("invalid sql config: %w", err)
		}
		return opened(sqlstore.Open(sc))
	case "redis":
		var rc redisstore.Config
		if err := decodeStoreConfig(cfg.Redis, &rc); err != nil {
			return nil, fmt.Errorf("invalid redis config: %w", err)
		}
		return opened(redisstore.Open(ctx, rc))
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}

// opened keeps a failed Open from yielding a non-nil interface.
func opened[S record.Store](s S, err error) (record.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PostgresConfig decodes the postgres section. auto_migrate defaults to
// true when absent.
func PostgresConfig(cfg StoreConfig) (postgres.Config, error) {
	var pc postgres.Config
	if err := decodeStoreConfig(cfg.Postgres, &pc); err != nil {
		return pc, fmt.Errorf("invalid postgres config: %w", err)
	}
	if _, ok := cfg.Postgres["auto_migrate"]; !ok {
		pc.AutoMigrate = true
	}
	pc.ApplyDefaults()
	return pc, nil
}

// decodeStoreConfig decodes a backend section with the same hooks as the
// main config, so durations may be written as "5s".
func decodeStoreConfig(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       configDecodeHooks(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
