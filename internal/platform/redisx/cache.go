package redisx

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

// HandleCache keeps user_id -> thread_id lookups off the database on the hot path.
type HandleCache interface {
	Get(ctx context.Context, userID string) (threadID string, ok bool)
	Set(ctx context.Context, userID, threadID string)
	Delete(ctx context.Context, userID string)
}

type redisHandleCache struct {
	rdb goredis.UniversalClient
	log *logger.Logger
	ttl time.Duration
}

func NewHandleCache(rdb goredis.UniversalClient, log *logger.Logger, ttl time.Duration) HandleCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisHandleCache{rdb: rdb, log: log.With("service", "RedisHandleCache"), ttl: ttl}
}

func handleKey(userID string) string { return "handle:" + userID }

// Cache failures are logged and treated as misses.
func (c *redisHandleCache) Get(ctx context.Context, userID string) (string, bool) {
	v, err := c.rdb.Get(ctx, handleKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Handle cache get failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (c *redisHandleCache) Set(ctx context.Context, userID, threadID string) {
	if err := c.rdb.Set(ctx, handleKey(userID), threadID, c.ttl).Err(); err != nil {
		c.log.Warn("Handle cache set failed", "user_id", userID, "error", err)
	}
}

func (c *redisHandleCache) Delete(ctx context.Context, userID string) {
	if err := c.rdb.Del(ctx, handleKey(userID)).Err(); err != nil {
		c.log.Warn("Handle cache delete failed", "user_id", userID, "error", err)
	}
}

// NopHandleCache never hits.
type NopHandleCache struct{}

func (NopHandleCache) Get(context.Context, string) (string, bool) { return "", false }
func (NopHandleCache) Set(context.Context, string, string)        {}
func (NopHandleCache) Delete(context.Context, string)             {}
