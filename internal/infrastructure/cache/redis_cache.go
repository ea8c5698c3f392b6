package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

// RedisCache keeps responses in Redis with a per-key TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient opens a client for the configured address.
func NewRedisClient(settings domain.RedisSettings) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         settings.Address,
		Password:     settings.Password,
		DB:           settings.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = domain.DefaultRedisKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get implements ports.CacheRepository.
func (c *RedisCache) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	if key == "" {
		return domain.CacheEntry{}, false, nil
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Set implements ports.CacheRepository.
func (c *RedisCache) Set(ctx context.Context, entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+entry.Key, data, c.ttl).Err()
}

// Entries implements ports.CacheRepository.
func (c *RedisCache) Entries(ctx context.Context) ([]domain.CacheEntry, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

// Clear implements ports.CacheRepository.
func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

var _ ports.CacheRepository = (*RedisCache)(nil)
