package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notif:unread:"

// UnreadCache keeps per-recipient unread counters in Redis so the badge count
// on every page load avoids a table scan. It is a cache, not the record: on
// any miss or Redis failure callers fall back to the store's CountUnread.
// A nil cache is valid and disables caching.
type UnreadCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewUnreadCache wraps a Redis client. Pass nil to disable caching.
func NewUnreadCache(client *redis.Client, logger *slog.Logger) *UnreadCache {
	if client == nil {
		return nil
	}
	return &UnreadCache{client: client, logger: logger}
}

func unreadKey(recipient uuid.UUID) string {
	return unreadKeyPrefix + recipient.String()
}

// Add bumps a recipient's unread counter after a fan-out persists.
func (c *UnreadCache) Add(ctx context.Context, recipient uuid.UUID, delta int) {
	if c == nil {
		return
	}
	if err := c.client.IncrBy(ctx, unreadKey(recipient), int64(delta)).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to bump unread counter", "recipient", recipient, "error", err)
	}
}

// Get returns the cached unread count. ok is false on a miss or failure.
func (c *UnreadCache) Get(ctx context.Context, recipient uuid.UUID) (int, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, unreadKey(recipient)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, false
	}
	return count, true
}

// Set overwrites the counter with an authoritative value from the store.
func (c *UnreadCache) Set(ctx context.Context, recipient uuid.UUID, count int) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, unreadKey(recipient), fmt.Sprint(count), 0).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to set unread counter", "recipient", recipient, "error", err)
	}
}

// Invalidate drops the counter so the next read repopulates from the store.
func (c *UnreadCache) Invalidate(ctx context.Context, recipient uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, unreadKey(recipient)).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate unread counter", "recipient", recipient, "error", err)
	}
}
