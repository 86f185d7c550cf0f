package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ImportQuota enforces the daily per-user import limit with a Redis
// counter keyed by user and UTC date. The key expires at the next UTC
// midnight so the window resets for everyone at the same moment.
type ImportQuota struct {
	client     *redis.Client
	dailyLimit int
	logger     *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewImportQuota creates the quota gate.
func NewImportQuota(client *redis.Client, dailyLimit int, logger *zap.Logger) *ImportQuota {
	return &ImportQuota{
		client:     client,
		dailyLimit: dailyLimit,
		logger:     logger,
		now:        time.Now,
	}
}

// Consume counts one import attempt for the user today. The increment
// happens first; an attempt over the limit still counted, which keeps
// the check race-free under concurrent requests.
func (q *ImportQuota) Consume(ctx context.Context, userID uuid.UUID) (bool, int, error) {
	now := q.now().UTC()
	key := fmt.Sprintf("import:quota:%s:%s", userID, now.Format("2006-01-02"))

	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("increment import quota: %w", err)
	}

	// First hit of the day sets the expiry to the next UTC midnight.
	if count == 1 {
		midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := q.client.ExpireAt(ctx, key, midnight).Err(); err != nil {
			q.logger.Warn("setting quota expiry failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	remaining := q.dailyLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= q.dailyLimit, remaining, nil
}
