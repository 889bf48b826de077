package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	l := NewRedisLock(client, "sweep", time.Minute)

	release, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("sweep"))
	assert.Equal(t, time.Minute, mr.TTL("sweep"))

	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("sweep"))

	release, err = l.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRedisLock_ErrNotAcquiredReportsHeld(t *testing.T) {
	var held interface{ LockHeld() bool } = ErrNotAcquired
	assert.True(t, held.LockHeld())
}

func TestRedisLock_ExpiredLeaseIsNotReleasedTwice(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	l := NewRedisLock(client, "sweep", time.Second)

	release, err := l.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	other, err := l.Acquire(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists("sweep"), "stale release must not delete the new holder's key")
	require.NoError(t, other(ctx))
}

func TestRedisLock_BackendDown(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	_, err := NewRedisLock(client, "", 0).Acquire(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}

func TestNewRedisLock_Defaults(t *testing.T) {
	_, client := setupRedis(t)
	l := NewRedisLock(client, "", 0)
	assert.Equal(t, DefaultKey, l.key)
	assert.Equal(t, DefaultTTL, l.ttl)
}
