package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKV is the Redis implementation of KeyValueStore.
// The slot is a plain string key with no expiry.
type redisKV struct {
	client redis.UniversalClient
}

// NewRedisKV constructs a KeyValueStore backed by the given Redis client.
func NewRedisKV(client redis.UniversalClient) KeyValueStore {
	return &redisKV{client: client}
}

// OpenRedis parses url, connects, and verifies the server answers PING
// within five seconds.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenRedis: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("repo.OpenRedis: ping: %w", err)
	}
	return client, nil
}

// Get reads the slot stored under key.
func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("repo.RedisKV.Get: %w", err)
	}
	return value, true, nil
}

// Set overwrites the slot stored under key.
func (r *redisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("repo.RedisKV.Set: %w", err)
	}
	return nil
}
