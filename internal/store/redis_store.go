package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	redis "github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

const (
	defaultPrefix       = "queuebot"
	defaultMaxConflicts = 10
)

// RedisStore implements Store on top of plain Redis string keys.
type RedisStore struct {
	client       *appredis.Client
	prefix       string
	maxConflicts int
	log          *slog.Logger
}

// Option customises a RedisStore.
type Option func(*RedisStore)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMaxConflictRetries bounds how many times a transaction is replayed after losing a WATCH race.
func WithMaxConflictRetries(n int) Option {
	return func(s *RedisStore) {
		if n >= 0 {
			s.maxConflicts = n
		}
	}
}

// WithLogger sets the logger used for conflict diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *RedisStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewRedisStore builds a store over client.
func NewRedisStore(client *appredis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		client:       client,
		prefix:       defaultPrefix,
		maxConflicts: defaultMaxConflicts,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key maps a path such as "listings/abc" to "queuebot:listings:abc".
func (s *RedisStore) Key(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStore) Once(ctx context.Context, path string, dest any) error {
	var raw []byte
	err := s.call(ctx, "get", func() error {
		var err error
		raw, err = s.client.Get(ctx, s.Key(path)).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return s.call(ctx, "set", func() error {
		return s.client.Set(ctx, s.Key(path), raw, 0).Err()
	})
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	return s.call(ctx, "del", func() error {
		return s.client.Del(ctx, s.Key(path)).Err()
	})
}

func (s *RedisStore) Take(ctx context.Context, path string, dest any) error {
	var raw []byte
	err := s.call(ctx, "getdel", func() error {
		var err error
		raw, err = s.client.GetDel(ctx, s.Key(path)).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Transaction runs fn as an optimistic compare-and-set on path using WATCH/MULTI/EXEC.
func (s *RedisStore) Transaction(ctx context.Context, path string, fn TxFunc) error {
	key := s.Key(path)

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			current = nil
		case err != nil:
			return err
		}

		next, err := fn(current)
		if err != nil {
			return &abortError{err: err}
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt <= s.maxConflicts; attempt++ {
		err := s.call(ctx, "transaction", func() error {
			return s.client.Watch(ctx, txn, key)
		})

		var abort *abortError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &abort):
			return abort.err
		case errors.Is(err, redis.TxFailedErr):
			s.log.DebugContext(ctx, "store transaction conflict",
				slog.String("path", path),
				slog.Int("attempt", attempt+1),
			)
			continue
		default:
			return err
		}
	}

	s.log.WarnContext(ctx, "store transaction gave up",
		slog.String("path", path),
		slog.Int("attempts", s.maxConflicts+1),
	)
	return ErrConflict
}

// call records metrics for fn and retries transport failures with backoff.
func (s *RedisStore) call(ctx context.Context, method string, fn func() error) error {
	return apperrors.WithRetry(ctx, func() error {
		err := appredis.Observe(method, fn, isFailure)
		if err == nil || !isFailure(err) {
			return err
		}
		return apperrors.NewDatabaseError("redis "+method, err)
	})
}

func isFailure(err error) bool {
	var abort *abortError
	return !errors.Is(err, redis.Nil) &&
		!errors.Is(err, redis.TxFailedErr) &&
		!errors.As(err, &abort)
}

// abortError carries an error raised by a TxFunc through go-redis untouched.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }

func (e *abortError) Unwrap() error { return e.err }
