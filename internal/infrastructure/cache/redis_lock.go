package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another instance holds the lock
var ErrLockHeld = errors.New("lock held by another instance")

// RedisLock is a named distributed lock backed by Redis
type RedisLock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a lock on key that expires after ttl unless released
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		locker: redislock.New(client),
		key:    key,
		ttl:    ttl,
	}
}

// Obtain tries once to take the lock. It returns ErrLockHeld when the lock
// is taken and a release function otherwise.
func (l *RedisLock) Obtain(ctx context.Context) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}
