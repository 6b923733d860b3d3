package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skycast/skycast/internal/weather"
)

// DefaultKeyPrefix namespaces snapshot keys in a shared Redis.
const DefaultKeyPrefix = "skycast:weather:"

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	// Client is the Redis client (required).
	Client RedisClient

	// KeyPrefix is prepended to every key. Default: DefaultKeyPrefix.
	KeyPrefix string
}

// Redis stores JSON-encoded snapshots in Redis with a per-key TTL.
// Several API and worker processes can share one instance.
type Redis struct {
	client RedisClient
	prefix string
}

// NewRedis creates a Redis-backed cache.
func NewRedis(cfg RedisConfig) *Redis {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: cfg.Client, prefix: prefix}
}

// NewRedisFromURL parses a redis:// URL and connects lazily.
func NewRedisFromURL(redisURL string) (*Redis, *redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)
	return NewRedis(RedisConfig{Client: client}), client, nil
}

// Key returns the Redis key for a cache key.
func (r *Redis) Key(key string) string {
	return r.prefix + key
}

// Get returns the cached snapshot or weather.ErrCacheMiss.
func (r *Redis) Get(ctx context.Context, key string) (*weather.Snapshot, error) {
	data, err := r.client.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, weather.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var snap weather.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores value under key with SET ... EX ttl.
func (r *Redis) Set(ctx context.Context, key string, value *weather.Snapshot, ttl time.Duration) error {
	if value == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
