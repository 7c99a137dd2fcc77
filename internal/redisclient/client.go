package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps the Redis connection used for fulfillment bookkeeping
// (per-task idempotency markers).
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
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

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MarkTaskDone records a fulfillment task as done exactly once. Returns true
// when this call claimed the marker, false when the task already ran. A TTL
// keeps redelivered events from piling up markers forever.
func (c *Client) MarkTaskDone(ctx context.Context, orderID, task string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("fulfillment:%s:%s", orderID, task)
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// ClearTaskMarker removes a task marker so a failed task can be retried by a
// later delivery of the same event.
func (c *Client) ClearTaskMarker(ctx context.Context, orderID, task string) error {
	key := fmt.Sprintf("fulfillment:%s:%s", orderID, task)
	return c.rdb.Del(ctx, key).Err()
}
