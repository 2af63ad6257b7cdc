// Package storage builds the configured query store backend.
package storage

import (
	"context"
	"fmt"

	sqliteadapter "github.com/tinnou/router/internal/adapters/storage/sqlite"
	"github.com/tinnou/router/internal/config"
	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/storage/memory"
	"github.com/tinnou/router/internal/storage/sqldb"
	"github.com/tinnou/router/internal/storage/sturdy"
	"github.com/tinnou/router/internal/storage/tiered"
)

// New creates the store selected by cfg.Store.Type.
func New(ctx context.Context, cfg *config.Config) (ports.QueryStore, error) {
	sc := cfg.Store

	switch sc.Type {
	case config.StoreMemory, "":
		store, err := memory.New(sc.Capacity)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreSturdyc:
		sturdyCfg := sturdy.DefaultConfig()
		sturdyCfg.Capacity = sc.Capacity
		sturdyCfg.NumShards = sc.Shards
		sturdyCfg.TTL = sc.TTL
		store, err := sturdy.New(sturdyCfg)
		if err != nil {
			return nil, fmt.Errorf("open sturdyc store: %w", err)
		}
		return store, nil

	case config.StoreSQLite:
		if cfg.DatabaseDriver() == config.StoreSQLite {
			store, err := sqliteadapter.NewProvider(ctx, sc.Database.DSN, sc.Capacity)
			if err != nil {
				return nil, fmt.Errorf("open sqlite store: %w", err)
			}
			return store, nil
		}
		fallthrough

	case config.StoreMySQL, config.StorePostgres:
		store, err := newSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreTiered:
		far, err := newSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		near, err := memory.New(sc.Capacity)
		if err != nil {
			far.Close()
			return nil, err
		}
		return tiered.New(near, far), nil

	default:
		return nil, fmt.Errorf("unknown store type: %s", sc.Type)
	}
}

func newSQL(ctx context.Context, cfg *config.Config) (*sqldb.Store, error) {
	store, err := sqldb.New(ctx, sqldb.Config{
		Driver:   cfg.DatabaseDriver(),
		DSN:      cfg.Store.Database.DSN,
		Capacity: cfg.Store.Capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}
	return store, nil
}
