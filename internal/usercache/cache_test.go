package usercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

func TestCache_RoundTripAndExpiry(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	cache := NewCache(client.Client, time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 1, Username: "ann"}))
	got, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)

	mr.FastForward(2 * time.Minute)
	got, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 2}))
	require.NoError(t, cache.Invalidate(ctx, 2))
	got, err = cache.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}
