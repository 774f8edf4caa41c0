package db

import (
	"context"
	"fmt"

	"github.com/gratten/runlog/internal/config"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		r, err := OpenRedis(ctx, cfg.RedisAddr,
			WithRedisPassword(cfg.RedisPassword),
			WithRedisDB(cfg.RedisDB),
			WithRedisPrefix(cfg.RedisPrefix),
		)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q (use sqlite, redis, or memory)", cfg.Backend)
	}
}
