package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "order-status:"

// StatusCache stores the last get-status probe answer per order with a TTL.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatusCache{client: client, ttl: ttl}
}

func (c *StatusCache) Put(ctx context.Context, orderID, status string) error {
	if err := c.client.Set(ctx, keyPrefix+orderID, status, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache status for %s: %w", orderID, err)
	}
	return nil
}

// Get reports false when nothing is cached for orderID.
func (c *StatusCache) Get(ctx context.Context, orderID string) (string, bool, error) {
	v, err := c.client.Get(ctx, keyPrefix+orderID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached status for %s: %w", orderID, err)
	}
	return v, true, nil
}

func (c *StatusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
