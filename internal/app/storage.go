package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tagmint/tagmint/internal/platform/blob"
)

// OpenBlobStore builds the blob store selected by BLOB_DRIVER. The
// returned closer releases the underlying client, if any.
func OpenBlobStore(ctx context.Context, cfg *Config, logger *slog.Logger) (blob.Store, func(), error) {
	noop := func() {}
	switch cfg.BlobDriver {
	case "fs":
		store, err := blob.NewFS(cfg.BlobDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
		return blob.NewRedis(client, cfg.BlobNamespace), closer, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		store := blob.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil
	case "memory":
		return blob.NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
