package runlock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockExclusive(t *testing.T) {
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	lock := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "run-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lease")

	require.NoError(t, lock.Release(ctx, "run-b"))
	assert.Equal(t, "run-a", lock.Holder(), "release by a non-owner is ignored")

	require.NoError(t, lock.Release(ctx, "run-a"))
	ok, err = lock.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockExpires(t *testing.T) {
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	lock := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, _ := lock.Acquire(ctx, "crashed", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Empty(t, lock.Holder())
	ok, err := lock.Acquire(ctx, "next", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockRequiresOwner(t *testing.T) {
	_, err := NewMemory().Acquire(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return redis.NewBoolResult(false, f.failSet)
	}
	if _, exists := f.values[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if script != releaseScript || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, errors.New("unexpected script"))
	}
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLock(t *testing.T) {
	client := newFakeRedis()
	lock := NewRedis(client, "")
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "run-a", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultTTL, client.ttls[DefaultRedisKey])

	ok, err = lock.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "run-b"))
	assert.Equal(t, "run-a", client.values[DefaultRedisKey])

	require.NoError(t, lock.Release(ctx, "run-a"))
	_, held := client.values[DefaultRedisKey]
	assert.False(t, held)
}

func TestRedisLockSurfacesErrors(t *testing.T) {
	client := newFakeRedis()
	client.failSet = errors.New("connection refused")
	_, err := NewRedis(client, "custom").Acquire(context.Background(), "run", time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNoopLock(t *testing.T) {
	ok, err := Noop{}.Acquire(context.Background(), "any", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}
