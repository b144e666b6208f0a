package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T, opts ...Option) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(appredis.Wrap(client), opts...), mr
}

func TestRedisStore_Key(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, "queuebot:listings:abc", s.Key("listings/abc"))
	assert.Equal(t, "queuebot:listings:abc", s.Key("/listings/abc/"))

	s2, _ := newTestStore(t, WithPrefix("test"))
	assert.Equal(t, "test:a:b", s2.Key("a/b"))
}

func TestRedisStore_OnceSetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	var got doc
	assert.ErrorIs(t, s.Once(ctx, "docs/1", &got), ErrNotFound)

	require.NoError(t, s.Set(ctx, "docs/1", doc{Name: "lamp", Count: 2}))
	require.NoError(t, s.Once(ctx, "docs/1", &got))
	assert.Equal(t, doc{Name: "lamp", Count: 2}, got)
	assert.True(t, mr.Exists("queuebot:docs:1"))

	require.NoError(t, s.Delete(ctx, "docs/1"))
	assert.ErrorIs(t, s.Once(ctx, "docs/1", &got), ErrNotFound)
}

func TestRedisStore_Take(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "docs/1", doc{Name: "lamp"}))

	var got doc
	require.NoError(t, s.Take(ctx, "docs/1", &got))
	assert.Equal(t, "lamp", got.Name)
	assert.ErrorIs(t, s.Take(ctx, "docs/1", &got), ErrNotFound)
}

func TestRedisStore_Transaction(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	t.Run("creates when absent", func(t *testing.T) {
		err := s.Transaction(ctx, "docs/tx", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return json.Marshal(doc{Name: "new"})
		})
		require.NoError(t, err)

		var got doc
		require.NoError(t, s.Once(ctx, "docs/tx", &got))
		assert.Equal(t, "new", got.Name)
	})

	t.Run("abort returns error and keeps value", func(t *testing.T) {
		sentinel := errors.New("not allowed")
		err := s.Transaction(ctx, "docs/tx", func([]byte) ([]byte, error) {
			return []byte(`{"name":"overwritten"}`), sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		var got doc
		require.NoError(t, s.Once(ctx, "docs/tx", &got))
		assert.Equal(t, "new", got.Name)
	})

	t.Run("nil result is a no-op", func(t *testing.T) {
		err := s.Transaction(ctx, "docs/none", func([]byte) ([]byte, error) {
			return nil, nil
		})
		require.NoError(t, err)

		var got doc
		assert.ErrorIs(t, s.Once(ctx, "docs/none", &got), ErrNotFound)
	})
}

func TestRedisStore_TransactionConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, WithMaxConflictRetries(1000))

	const writers = 20
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Transaction(ctx, "counter", func(current []byte) ([]byte, error) {
				n := 0
				if current != nil {
					var err error
					if n, err = strconv.Atoi(string(current)); err != nil {
						return nil, err
					}
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	raw, err := s.client.Get(ctx, s.Key("counter")).Result()
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(writers), raw)
}

func TestRedisStore_TransportErrorIsRetryableAppError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	s, mr := newTestStore(t)
	mr.Close()

	var got doc
	err := s.Once(ctx, "docs/1", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, &apperrors.AppError{Code: apperrors.CodeStorage})
}
