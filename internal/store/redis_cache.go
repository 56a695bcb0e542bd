package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/vidproxy/internal/kv"
)

// RedisCacheStore wraps a kv.Store with Redis caching for reads.
// Stored entries are immutable, so a cached value never goes stale; the TTL only
// bounds cache memory.
type RedisCacheStore struct {
	store  kv.Store
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCacheStore creates a new Redis-cached store decorator.
func NewRedisCacheStore(store kv.Store, client redis.UniversalClient, ttl time.Duration) *RedisCacheStore {
	return &RedisCacheStore{
		store:  store,
		client: client,
		prefix: "vpcache:",
		ttl:    ttl,
	}
}

// Get retrieves a value, checking the cache first.
func (r *RedisCacheStore) Get(ctx context.Context, key kv.Key) (string, error) {
	if value, err := r.client.Get(ctx, r.cacheKey(key)).Result(); err == nil {
		return value, nil
	}

	// Cache miss (or cache unavailable) - fetch from store
	value, err := r.store.Get(ctx, key)
	if err != nil {
		return "", err
	}

	r.cache(ctx, key, value)

	return value, nil
}

// Set writes to the underlying store and updates the cache.
func (r *RedisCacheStore) Set(ctx context.Context, key kv.Key, value string) error {
	if err := r.store.Set(ctx, key, value); err != nil {
		return err
	}

	r.cache(ctx, key, value)

	return nil
}

// SetIfAbsent claims the key in the underlying store and caches the value on success.
func (r *RedisCacheStore) SetIfAbsent(ctx context.Context, key kv.Key, value string) (bool, error) {
	claimed, err := r.store.SetIfAbsent(ctx, key, value)
	if err != nil || !claimed {
		return claimed, err
	}

	r.cache(ctx, key, value)

	return true, nil
}

// Ping checks both the cache and the underlying store.
func (r *RedisCacheStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return err
	}

	return r.store.Ping(ctx)
}

func (r *RedisCacheStore) cacheKey(key kv.Key) string {
	return r.prefix + key.String()
}

func (r *RedisCacheStore) cache(ctx context.Context, key kv.Key, value string) {
	_ = r.client.Set(ctx, r.cacheKey(key), value, r.ttl).Err()
}

// Shutdown is a no-op for RedisCacheStore (client managed externally).
func (r *RedisCacheStore) Shutdown() error {
	return nil
}

// Compile-time check.
var _ kv.Store = (*RedisCacheStore)(nil)
