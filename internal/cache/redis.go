package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Redis-backed Store, used when the dedup window must be shared
// across multiple coordinator instances (e.g. an active/standby pair
// sharing one fingerprint history). It implements the same Store interface
// as Memory so engines are agnostic to the backend.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
	stats  struct {
		hits      atomic.Int64
		misses    atomic.Int64
		sets      atomic.Int64
		evictions atomic.Int64
	}
}

// RedisConfig holds connection parameters for the Redis-backed cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis dials Redis and verifies connectivity before returning.
func NewRedis(cfg RedisConfig, logger zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis dedup cache")
	return &Redis{client: client, logger: logger}, nil
}

func (r *Redis) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		r.stats.misses.Add(1)
		return nil, false
	}
	var out any
	if err := json.Unmarshal(val, &out); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("dedup cache: corrupt value")
		r.stats.misses.Add(1)
		return nil, false
	}
	r.stats.hits.Add(1)
	return out, true
}

func (r *Redis) Set(key string, value any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("dedup cache: marshal failed")
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("dedup cache: set failed")
		return
	}
	r.stats.sets.Add(1)
}

func (r *Redis) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.client.Del(ctx, key).Err()
}

func (r *Redis) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (r *Redis) Stats() Stats {
	return Stats{
		Hits:      r.stats.hits.Load(),
		Misses:    r.stats.misses.Load(),
		Sets:      r.stats.sets.Load(),
		Evictions: r.stats.evictions.Load(),
	}
}

// Close closes the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
