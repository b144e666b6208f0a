package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

const (
	userStateKeyPattern  = "user:state:%d"
	userStateScanPattern = "user:state:*"
	defaultStateTTL      = time.Hour
)

// RedisStorage persists conversation contexts in Redis with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetState returns the stored context or ErrStateNotFound when absent.
func (s *RedisStorage) GetState(ctx context.Context, userID int64) (*UserContext, error) {
	var data []byte
	err := appredis.Observe("state_get", func() error {
		var err error
		data, err = s.client.Get(ctx, redisUserStateKey(userID)).Bytes()
		return err
	}, notMiss)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.ErrorContext(ctx, "failed to get state from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var uc UserContext
	if err := json.Unmarshal(data, &uc); err != nil {
		s.log.ErrorContext(ctx, "failed to decode user state", "user_id", userID, "error", err)
		return nil, err
	}

	return &uc, nil
}

// SetState saves the context and refreshes its TTL.
func (s *RedisStorage) SetState(ctx context.Context, userID int64, uc *UserContext) error {
	if uc.UpdatedAt.IsZero() {
		uc.UpdatedAt = s.now().UTC()
	}

	data, err := json.Marshal(uc)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode user state", "user_id", userID, "error", err)
		return err
	}

	err = appredis.Observe("state_set", func() error {
		return s.client.Set(ctx, redisUserStateKey(userID), data, s.ttl).Err()
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to save state in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// ClearState removes the stored context for the given user.
func (s *RedisStorage) ClearState(ctx context.Context, userID int64) error {
	err := appredis.Observe("state_del", func() error {
		return s.client.Del(ctx, redisUserStateKey(userID)).Err()
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to clear user state", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// GetAllStates retrieves every stored context by scanning Redis keys.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*UserContext, error) {
	var (
		cursor uint64
		result []*UserContext
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, userStateScanPattern, 100).Result()
		if err != nil {
			s.log.ErrorContext(ctx, "failed to scan user states", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.ErrorContext(ctx, "failed to fetch user state", "key", key, "error", err)
				return nil, err
			}

			var uc UserContext
			if err := json.Unmarshal(data, &uc); err != nil {
				s.log.WarnContext(ctx, "failed to decode user state", "key", key, "error", err)
				continue
			}

			result = append(result, &uc)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func redisUserStateKey(userID int64) string {
	return fmt.Sprintf(userStateKeyPattern, userID)
}

func notMiss(err error) bool {
	return !errors.Is(err, redis.Nil)
}
