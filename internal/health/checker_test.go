package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestChecker_AllHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewChecker(nil, time.Second)
	c.AddCheck("redis", NewRedisChecker(client))
	c.AddCheck("telegram", NewTelegramChecker(&telebot.Bot{Me: &telebot.User{ID: 1}}))

	assert.Equal(t, map[string]string{"redis": "OK", "telegram": "OK"}, c.Check(context.Background()))
	assert.NoError(t, c.Ready(context.Background()))
}

func TestChecker_ReportsFailures(t *testing.T) {
	c := NewChecker(nil, time.Second)
	c.AddCheck("ok", checkFunc(func(context.Context) error { return nil }))
	c.AddCheck("db", checkFunc(func(context.Context) error { return errors.New("connection refused") }))
	c.AddCheck("telegram", NewTelegramChecker(nil))
	c.AddCheck("", checkFunc(func(context.Context) error { return nil }))

	results := c.Check(context.Background())
	assert.Len(t, results, 3)
	assert.Equal(t, "OK", results["ok"])
	assert.Equal(t, "connection refused", results["db"])

	err := c.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: connection refused")
}

func TestChecker_TimesOutSlowChecks(t *testing.T) {
	c := NewChecker(nil, 20*time.Millisecond)
	c.AddCheck("slow", checkFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	assert.Equal(t, context.DeadlineExceeded.Error(), c.Check(context.Background())["slow"])
}

func TestChecker_Handler(t *testing.T) {
	c := NewChecker(nil, time.Second)
	c.AddCheck("db", checkFunc(func(context.Context) error { return errors.New("down") }))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "down", body["db"])
}
