// Package store builds the tankd outcome cache from configuration.
//
//   - "memory": in-process cache with TTL expiry. Entries are lost on restart.
//   - "redis": shared cache for several tankd replicas.
//   - "none": no cache; every request runs the engine.
//
// Initialization is fail-fast: an unreachable Redis stops the process at startup.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/tanklevels/cmd/tankd/config"
	"github.com/HatiCode/tanklevels/pkg/storage"
)

// New returns the configured store, or nil for "none".
func New(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage {
	case "redis":
		logger.Info("initializing redis outcome cache",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.CacheTTL,
		)
		redisStore, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("redis health check failed: %w", err)
		}
		return redisStore, nil

	case "memory":
		logger.Info("initializing in-memory outcome cache", "ttl", cfg.CacheTTL)
		return storage.NewMemoryStore(cfg.CacheTTL), nil

	case "none":
		logger.Info("outcome cache disabled")
		return nil, nil

	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Storage)
	}
}
