package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"

	keyPrefix = "queuebot:idempotency:"
)

type Record struct {
	Status   string
	Response []byte
}

type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ReleaseLock(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	var acquired bool
	err := appredis.Observe("idempotency_lock", func() error {
		var err error
		acquired, err = s.client.SetNX(ctx, lockKey(key), 1, lockTTL).Result()
		return err
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to acquire idempotency lock", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	var fields map[string]string
	err := appredis.Observe("idempotency_get", func() error {
		var err error
		fields, err = s.client.HGetAll(ctx, recordKey(key)).Result()
		return err
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to fetch idempotency record", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	if len(fields) == 0 {
		return nil, nil
	}

	return &Record{
		Status:   fields["status"],
		Response: []byte(fields["response"]),
	}, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return errors.New("idempotency record is nil")
	}

	err := appredis.Observe("idempotency_set", func() error {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, recordKey(key), map[string]interface{}{
			"status":   record.Status,
			"response": string(record.Response),
		})
		pipe.Expire(ctx, recordKey(key), ttl)
		_, err := pipe.Exec(ctx)
		return err
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return appredis.Observe("idempotency_delete", func() error {
		return s.client.Del(ctx, recordKey(key)).Err()
	}, nil)
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	err := appredis.Observe("idempotency_unlock", func() error {
		return s.client.Del(ctx, lockKey(key)).Err()
	}, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func recordKey(key string) string {
	return keyPrefix + key
}

func lockKey(key string) string {
	return keyPrefix + key + ":lock"
}
