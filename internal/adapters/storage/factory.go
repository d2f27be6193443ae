package storage

import (
	"context"
	"fmt"

	"github.com/teamaster/core/internal/infrastructure/cache"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/infrastructure/database"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/ports"
)

// Open builds the storage selected by cfg.Store.Backend:
//
//	file:     JSON file at store.path (default data.json)
//	memory:   process memory, lost on exit
//	sqlite:   embedded database at sqlite.path
//	postgres: tea_collections table (run `migrate up` first)
//	redis:    string key redis.key
//
// The returned close function releases backend resources.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.TeaStorage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.BackendFile:
		s, err := NewFileStorage(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendMemory:
		return NewMemoryStorage(), noop, nil
	case config.BackendSQLite:
		s, err := NewSQLiteStorage(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStorage(db, cfg.Database.Collection), db.Close, nil
	case config.BackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStorage(client, cfg.Redis.Key, cfg.Redis.LockTTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %s", cfg.Store.Backend)
	}
}
