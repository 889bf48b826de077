// Package lock provides a Redis-backed mutex with a lease, used to keep
// one expiry sweep running across all worker instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey = "application-workers:expiry-sweep"
	DefaultTTL = 5 * time.Minute
)

// ErrNotAcquired means another holder owns the lock.
var ErrNotAcquired = notAcquiredError{}

type notAcquiredError struct{}

func (notAcquiredError) Error() string  { return "lock held by another owner" }
func (notAcquiredError) LockHeld() bool { return true }

// ErrNotHeld is returned by release when the lease expired or was taken
// over before release.
var ErrNotHeld = errors.New("lock no longer held")

// Deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock for ttl. The returned func releases it and is
// safe to call after the lease ran out.
func (l *RedisLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", l.key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, nil
}
