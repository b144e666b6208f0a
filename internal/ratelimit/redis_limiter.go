package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

const redisKeyPrefix = "queuebot:ratelimit:"

// RedisLimiter implements Limiter using Redis sorted sets and a sliding window.
// Rejected attempts are not recorded, so a throttled user is free again as soon as
// the oldest accepted event leaves the window.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string, rule Rule) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}
	if rule.Limit <= 0 {
		return &Result{Allowed: false, RetryAfter: rule.Window}, nil
	}

	now := l.now()
	redisKey := redisKeyPrefix + key
	member := uuid.NewString()
	cutoff := now.Add(-rule.Window).UnixMilli()

	var (
		count  int64
		oldest []redis.Z
	)
	err := appredis.Observe("ratelimit_check", func() error {
		pipe := l.client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%d", cutoff))
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		countCmd := pipe.ZCard(ctx, redisKey)
		oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		pipe.PExpire(ctx, redisKey, rule.Window)

		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = countCmd.Val()
		oldest = oldestCmd.Val()
		return nil
	}, nil)
	if err != nil {
		l.log.ErrorContext(ctx, "rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	if count <= int64(rule.Limit) {
		return &Result{Allowed: true, Remaining: rule.Limit - int(count)}, nil
	}

	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		l.log.WarnContext(ctx, "failed to drop rejected rate limit entry", slog.String("key", key), slog.Any("error", err))
	}

	retryAfter := rule.Window
	if len(oldest) > 0 {
		freedAt := time.UnixMilli(int64(oldest[0].Score)).Add(rule.Window)
		retryAfter = max(freedAt.Sub(now), time.Millisecond)
	}

	return &Result{Allowed: false, RetryAfter: retryAfter}, nil
}
