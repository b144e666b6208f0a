package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner removes idempotency keys without an expiry.
type Cleaner struct {
	client   *redis.Client
	log      *slog.Logger
	interval time.Duration
	maxTTL   time.Duration
}

func NewCleaner(client *redis.Client, log *slog.Logger, interval, maxTTL time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &Cleaner{
		client:   client,
		log:      log,
		interval: interval,
		maxTTL:   maxTTL,
	}
}

func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup deletes keys without a TTL or with one longer than maxTTL and returns how many it removed.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			c.log.ErrorContext(ctx, "idempotency cleaner scan failed", slog.Any("error", err))
			return removed
		}

		for _, key := range keys {
			ttl, err := c.client.TTL(ctx, key).Result()
			if err != nil {
				c.log.WarnContext(ctx, "failed to get key ttl", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if ttl == -1 || (c.maxTTL > 0 && ttl > c.maxTTL) {
				if err := c.client.Del(ctx, key).Err(); err != nil {
					c.log.WarnContext(ctx, "failed to delete stale idempotency key", slog.String("key", key), slog.Any("error", err))
					continue
				}
				removed++
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if removed > 0 {
		c.log.InfoContext(ctx, "stale idempotency keys removed", slog.Int("count", removed))
	}
	return removed
}
