package redisx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/heartthread-backend/internal/platform/keylock"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a keylock.Locker shared by every replica through redis (SET NX PX).
type Locker struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

var _ keylock.Locker = (*Locker)(nil)

func NewLocker(rdb goredis.UniversalClient, log *logger.Logger, ttl, wait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Locker{
		rdb:    rdb,
		log:    log.With("service", "RedisLocker"),
		prefix: "lock:conversation:",
		ttl:    ttl,
		wait:   wait,
		retry:  100 * time.Millisecond,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis locker not initialized")
	}
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			break
		}
		if l.wait <= 0 || time.Now().After(deadline) {
			return nil, keylock.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must outlive a cancelled request context.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.log.Warn("Failed to release conversation lock", "user_id", key, "error", err)
			}
		})
	}, nil
}
