//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/vidproxy/internal/kv"
	"github.com/serroba/vidproxy/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRedisStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	s := store.NewRedisStore(client)

	t.Run("set and get value", func(t *testing.T) {
		key := kv.NewKey(kv.NamespaceToken, "testtoken123")

		err := s.Set(ctx, key, "https://example.com/a.mp4")
		require.NoError(t, err)

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a.mp4", got)

		// Cleanup
		client.Del(ctx, "vp:"+key.String())
	})

	t.Run("set if absent does not overwrite", func(t *testing.T) {
		key := kv.NewKey(kv.NamespaceShort, "nx123456")

		claimed, err := s.SetIfAbsent(ctx, key, "https://old.com")
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = s.SetIfAbsent(ctx, key, "https://new.com")
		require.NoError(t, err)
		assert.False(t, claimed)

		got, _ := s.Get(ctx, key)
		assert.Equal(t, "https://old.com", got)

		// Cleanup
		client.Del(ctx, "vp:"+key.String())
	})

	t.Run("get non-existent returns ErrNotFound", func(t *testing.T) {
		got, err := s.Get(ctx, kv.NewKey(kv.NamespaceShort, "nonexistent"))

		assert.Empty(t, got)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})
}
