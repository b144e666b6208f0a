package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_RunsStagesInOrder(t *testing.T) {
	s := NewShutdown(nil)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Hook {
		return Func(name, func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		})
	}

	s.Register(record("bot"))
	s.Register(record("worker"), record("scheduler"))
	s.Register(record("redis"))
	s.Register(Hook{Name: "nil"})

	require.NoError(t, s.Execute(context.Background()))
	require.Len(t, order, 4)
	assert.Equal(t, "bot", order[0])
	assert.ElementsMatch(t, []string{"worker", "scheduler"}, order[1:3])
	assert.Equal(t, "redis", order[3])
}

func TestShutdown_JoinsErrorsAndRunsOnce(t *testing.T) {
	s := NewShutdown(nil)
	boom := errors.New("boom")
	calls := 0
	s.Register(Hook{Name: "db", Fn: func(context.Context) error {
		calls++
		return boom
	}})

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "db: boom")

	assert.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, 1, calls)
	assert.True(t, s.Started())
}

type readiness struct{ err error }

func (r readiness) Ready(context.Context) error { return r.err }

func TestProbes(t *testing.T) {
	shutdown := NewShutdown(nil)
	probes := NewProbes(readiness{err: errors.New("redis: down")}, shutdown, nil)
	ctx := context.Background()

	assert.NoError(t, probes.Liveness(ctx))
	assert.EqualError(t, probes.Readiness(ctx), "redis: down")

	rec := httptest.NewRecorder()
	probes.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	probes.LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, shutdown.Execute(ctx))
	assert.ErrorIs(t, probes.Liveness(ctx), ErrShuttingDown)
}
