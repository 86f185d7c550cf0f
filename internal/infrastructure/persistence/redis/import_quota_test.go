package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuota(t *testing.T, dailyLimit int) (*ImportQuota, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewImportQuota(client, dailyLimit, zap.NewNop()), mr
}

func TestQuotaConsume(t *testing.T) {
	quota, _ := newQuota(t, 3)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := quota.Consume(ctx, userID)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, err := quota.Consume(ctx, userID)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}

func TestQuotaIsPerUser(t *testing.T) {
	quota, _ := newQuota(t, 1)
	ctx := context.Background()

	allowed, _, err := quota.Consume(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = quota.Consume(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed, "one user's usage never charges another")
}

func TestQuotaExpiresAtUTCMidnight(t *testing.T) {
	quota, mr := newQuota(t, 5)
	userID := uuid.New()

	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	quota.now = func() time.Time { return noon }
	mr.SetTime(noon)

	_, _, err := quota.Consume(context.Background(), userID)
	require.NoError(t, err)

	key := "import:quota:" + userID.String() + ":2026-08-30"
	ttl := mr.TTL(key)
	assert.Equal(t, 12*time.Hour, ttl, "the counter dies at the next UTC midnight")
}

func TestQuotaWindowResets(t *testing.T) {
	quota, _ := newQuota(t, 1)
	ctx := context.Background()
	userID := uuid.New()

	day := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	quota.now = func() time.Time { return day }

	allowed, _, err := quota.Consume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = quota.Consume(ctx, userID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// The next day keys a fresh counter.
	quota.now = func() time.Time { return day.Add(2 * time.Hour) }

	allowed, _, err = quota.Consume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestQuotaOverLimitStillCounts(t *testing.T) {
	quota, mr := newQuota(t, 1)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 4; i++ {
		_, _, err := quota.Consume(ctx, userID)
		require.NoError(t, err)
	}

	key := "import:quota:" + userID.String() + ":" + time.Now().UTC().Format("2006-01-02")
	val, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "4", val, "rejected attempts still count toward the window")
}
