// Package testutil contains helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

// NewRedis starts an in-memory Redis server for the duration of the test.
func NewRedis(t testing.TB) (*appredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return appredis.Wrap(client), mr
}

func AssertEqual(t testing.TB, expected, actual any) {
	t.Helper()
	assert.Equal(t, expected, actual)
}

func AssertNoError(t testing.TB, err error) {
	t.Helper()
	require.NoError(t, err)
}

func AssertError(t testing.TB, err error) {
	t.Helper()
	require.Error(t, err)
}
