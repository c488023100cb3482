package blob

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, namespace string) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, namespace)
}

func TestRedisRoundTrip(t *testing.T) {
	store := newRedisStore(t, "tagmint")
	ctx := context.Background()

	_, err := store.Get(ctx, "audit.json")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "audit.json", []byte(`[]`)))
	data, err := store.Get(ctx, "audit.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestRedisNamespacesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	a := NewRedis(client, "tenant-a")
	b := NewRedis(client, "tenant-b")

	require.NoError(t, a.Put(ctx, "serials.json", []byte(`{"ABC":1}`)))
	_, err := b.Get(ctx, "serials.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
