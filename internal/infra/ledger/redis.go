package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	notifiedKeyPrefix = "duecall:notified:"

	// DefaultTTL keeps entries around long enough to cover any sane cooldown.
	DefaultTTL = 72 * time.Hour
)

// RedisLedger stores the last successful notification time per task as unix
// milliseconds under a per-task key.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisLedger{
		client: client,
		ttl:    ttl,
	}
}

func (l *RedisLedger) notifiedKey(taskID uuid.UUID) string {
	return notifiedKeyPrefix + taskID.String()
}

func (l *RedisLedger) LastNotified(ctx context.Context, taskID uuid.UUID) (time.Time, bool, error) {
	val, err := l.client.Get(ctx, l.notifiedKey(taskID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid notified value for task %s: %w", taskID, err)
	}

	return time.UnixMilli(ms).UTC(), true, nil
}

// MarkNotified never moves an entry backwards in time.
func (l *RedisLedger) MarkNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	key := l.notifiedKey(taskID)

	last, ok, err := l.LastNotified(ctx, taskID)
	if err != nil {
		return err
	}
	if ok && last.After(at) {
		return nil
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, key, strconv.FormatInt(at.UnixMilli(), 10), 0)
	pipe.Expire(ctx, key, l.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}

	return nil
}
