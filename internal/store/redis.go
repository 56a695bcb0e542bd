package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/vidproxy/internal/kv"
)

// RedisStore is a Redis implementation of kv.Store.
// Keys are stored as plain strings under "<prefix><namespace>:<id>" and never expire.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis-backed key-value store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "vp:",
	}
}

func (r *RedisStore) key(key kv.Key) string {
	return r.prefix + key.String()
}

func (r *RedisStore) Get(ctx context.Context, key kv.Key) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", kv.ErrNotFound
		}

		return "", err
	}

	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key kv.Key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStore) SetIfAbsent(ctx context.Context, key kv.Key, value string) (bool, error) {
	return r.client.SetNX(ctx, r.key(key), value, 0).Result()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Compile-time check.
var _ kv.Store = (*RedisStore)(nil)
