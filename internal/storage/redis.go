package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const popularityKey = "product:popularity"

// Store is the durable key-value contract the containers persist through.
// Values are JSON-serialized arrays. Implementations must treat a missing
// key as (found=false, err=nil), not as an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RedisStore backs the key-value contract with Redis and additionally keeps
// the product popularity ranking fed by the analytics worker.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (s *RedisStore) GetClient() *redis.Client {
	return s.rdb
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Get retrieves the value stored under key
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q failed: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q failed: %w", key, err)
	}
	return nil
}

// Delete removes key entirely
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q failed: %w", key, err)
	}
	return nil
}

// IncrPopularity bumps a product's score in the popularity ranking
func (s *RedisStore) IncrPopularity(ctx context.Context, productID string, delta float64) error {
	return s.rdb.ZIncrBy(ctx, popularityKey, delta, productID).Err()
}

// TopProducts returns up to n product ids ordered by descending popularity
func (s *RedisStore) TopProducts(ctx context.Context, n int64) ([]string, error) {
	return s.rdb.ZRevRange(ctx, popularityKey, 0, n-1).Result()
}

// MarkEventProcessed records an analytics event id with a TTL, returning
// false when the id was already recorded. Used for consumer idempotency.
func (s *RedisStore) MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf("event:%s", eventID), "1", ttl).Result()
}
