// Package cache provides the Redis layer shared between API processes:
// published signing keys and per-subject rate limit buckets.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key this package writes, so the ledger can share a
// Redis database with other services.
const Namespace = "moneymanager:"

// Cache holds the Redis client behind the key-set and rate limit stores.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and loads the rate limit script, so the first
// limited request does not pay for sending the script body.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	// Every authenticated request runs one bucket script; key lookups are rare.
	opt.PoolSize = 16
	opt.MinIdleConns = 4
	opt.PoolTimeout = 2 * time.Second
	opt.ConnMaxIdleTime = 10 * time.Minute

	c := &Cache{client: redis.NewClient(opt)}
	if err := c.warm(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c, nil
}

// NewFromClient wraps client without contacting Redis.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) warm(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	if err := subjectBucketScript.Load(ctx, c.client).Err(); err != nil {
		return fmt.Errorf("load rate limit script: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers. A missing rate limit script (after a
// Redis restart) is reloaded rather than reported.
func (c *Cache) Ping(ctx context.Context) error {
	loaded, err := subjectBucketScript.Exists(ctx, c.client).Result()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if len(loaded) == 1 && loaded[0] {
		return nil
	}
	if err := subjectBucketScript.Load(ctx, c.client).Err(); err != nil {
		return fmt.Errorf("reload rate limit script: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func redisKey(parts ...string) string {
	return Namespace + strings.Join(parts, "")
}
