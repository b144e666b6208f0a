package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/store"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	client, _ := testutil.NewRedis(t)
	return NewStore(store.NewRedisStore(client))
}

func TestStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "l1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, &domain.Listing{ID: "l1", Title: "Lamp", Seller: 10, HasQueue: true}))
	assert.ErrorIs(t, s.Create(ctx, &domain.Listing{ID: "l1", Seller: 11}), ErrExists)

	l, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", l.Title)
	assert.Equal(t, int64(10), l.Seller)
	assert.True(t, l.HasQueue)
	assert.Empty(t, l.Queue)
	assert.False(t, l.CreatedAt.IsZero())
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Create(context.Background(), &domain.Listing{ID: "l1"}))
}

func TestStore_UpdateAndFAQ(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, &domain.Listing{ID: "l1", Seller: 10}))

	_, err := s.SetPrice(ctx, "l1", 40)
	require.NoError(t, err)
	_, err = s.AppendFAQ(ctx, "l1", domain.FAQEntry{Question: "Lowest price?", Answer: "40"})
	require.NoError(t, err)

	l, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), l.Price)
	assert.Equal(t, []domain.FAQEntry{{Question: "Lowest price?", Answer: "40"}}, l.FAQ)

	l, err = s.ResetFAQ(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, l.FAQ)

	_, err = s.SetPrice(ctx, "l1", -5)
	assert.Error(t, err)
	l, err = s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), l.Price)
}

func TestStore_UpdateMissingAndAbort(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Update(ctx, "nope", func(*domain.Listing) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, &domain.Listing{ID: "l1", Seller: 10}))
	sentinel := errors.New("stop")
	_, err = s.Update(ctx, "l1", func(l *domain.Listing) error {
		l.Title = "changed"
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	l, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, l.Title)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, &domain.Listing{ID: "l1", Seller: 10, Queue: []int64{2, 3}}))

	removed, err := s.Delete(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, removed.Queue)

	_, err = s.Delete(ctx, "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}
