// Package redislock provides a per-key advisory lock backed by Redis
// SET NX PX, released with a compare-and-delete script.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

var ErrNotHeld = errors.New("lock not held")

// Locker hands out per-key locks. TryLock reports ok=false when another
// holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Config struct {
	Prefix string
	TTL    time.Duration
}

type redisLocker struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func New(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) (Locker, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "vc:lock:"
	}
	return &redisLocker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		// Release must outlive a cancelled request context.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Int()
		if err != nil {
			l.log.Warn("Lock release failed", "key", fullKey, "error", err)
			return
		}
		if n == 0 {
			l.log.Warn("Lock expired before release", "key", fullKey, "error", ErrNotHeld)
		}
	}
	return unlock, true, nil
}

// Nop always grants the lock. Used when REDIS_ADDR is not configured.
type Nop struct{}

func (Nop) TryLock(ctx context.Context, key string) (func(), bool, error) {
	return func() {}, true, nil
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
