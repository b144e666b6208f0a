// Package usercache caches user profiles in Redis so display names do not hit
// PostgreSQL on every waitlist summary.
package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/queue-bot/internal/domain"
	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

const defaultTTL = 24 * time.Hour

// Cache provides Redis-backed caching for user profiles.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a user cache backed by the provided Redis client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get fetches a cached profile. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	var data []byte
	err := appredis.Observe("usercache_get", func() error {
		var err error
		data, err = c.client.Get(ctx, cacheKey(userID)).Bytes()
		return err
	}, func(err error) bool { return !errors.Is(err, redis.Nil) })
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}

	return &user, nil
}

// Set stores the profile for the cache TTL.
func (c *Cache) Set(ctx context.Context, user *domain.User) error {
	if c == nil || c.client == nil || user == nil {
		return nil
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user for cache: %w", err)
	}

	err = appredis.Observe("usercache_set", func() error {
		return c.client.Set(ctx, cacheKey(user.ID), payload, c.ttl).Err()
	}, nil)
	if err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}

	return nil
}

// Invalidate removes the cached profile entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}

	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("queuebot:user:%d", userID)
}
