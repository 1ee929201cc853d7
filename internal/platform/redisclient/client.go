package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"doctrack/internal/platform/config"
)

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a Redis client from the provided configuration.
// Returns nil if the URL is empty (Redis not configured); callers treat a nil
// client as "feature disabled".
func New(cfg config.Server) (*Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.RedisPoolSize
	opts.DialTimeout = cfg.RedisDialWait
	opts.ReadTimeout = cfg.RedisReadWait
	opts.WriteTimeout = cfg.RedisWriteWait

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
