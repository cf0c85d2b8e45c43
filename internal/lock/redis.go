package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisRetryInterval = 100 * time.Millisecond

// RedisLocker holds the closure lock in Redis so every API replica sees it
type RedisLocker struct {
	client *redislock.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder
// can block others; wait bounds how long Acquire retries.
func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		key:    ClosureKey,
		ttl:    ttl,
		wait:   wait,
	}
}

// Acquire obtains the lock, retrying until the wait budget runs out
func (l *RedisLocker) Acquire(ctx context.Context) (Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held, err := l.client.Obtain(ctx, l.key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(redisRetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotAcquired
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", l.key, err)
	}
	return &redisLock{lock: held}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// TTL expired before release; someone else may own it now
		log.Warn().Str("key", l.lock.Key()).Msg("closure lock expired before release")
		return nil
	}
	return err
}
