package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository_SetGet(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))

	got, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestCacheRepository_Get_Miss(t *testing.T) {
	cache := NewCacheRepository()

	_, err := cache.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheRepository_TTLExpiry(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 10*time.Millisecond))

	_, err := cache.Get(ctx, "key")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheRepository_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))
	time.Sleep(10 * time.Millisecond)

	_, err := cache.Get(ctx, "key")
	assert.NoError(t, err)
}

func TestCacheRepository_Delete(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, cache.Delete(ctx, "key"))

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, cache.Delete(ctx, "never-existed"))
}

func TestCacheRepository_Exists(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	ok, err := cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))

	ok, err = cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheRepository_Increment(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	n, err := cache.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a missing counter starts at 1 like Redis INCR")

	n, err = cache.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCacheRepository_Increment_NonInteger(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("not a number"), 0))

	_, err := cache.Increment(ctx, "key")
	assert.Error(t, err)
}

func TestCacheRepository_Expire(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, cache.Expire(ctx, "key", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheRepository_Increment_PreservesExpiry(t *testing.T) {
	cache := NewCacheRepository()
	ctx := context.Background()

	_, err := cache.Increment(ctx, "counter")
	require.NoError(t, err)
	require.NoError(t, cache.Expire(ctx, "counter", 10*time.Millisecond))

	_, err = cache.Increment(ctx, "counter")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.Get(ctx, "counter")
	assert.ErrorIs(t, err, ErrCacheMiss, "incrementing must not clear a pending expiry")
}
