package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores documents as plain string values in a shared namespace.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis returns a redis-backed store. Keys are prefixed with the
// namespace so several deployments can share one instance.
func NewRedis(client *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = "tagmint"
	}
	return &Redis{client: client, namespace: namespace}
}

// Get implements Store.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("platform/blob: redis get %s: %w", key, err)
	}
	return data, nil
}

// Put implements Store.
func (s *Redis) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("platform/blob: redis set %s: %w", key, err)
	}
	return nil
}

func (s *Redis) key(key string) string {
	return s.namespace + ":blob:" + key
}
