package faq

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/internal/store"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

const seller int64 = 10

var questions = []string{"Asking price?", "Lowest price?", "Price today?"}

func newSequencer(t *testing.T) (*Sequencer, *listing.Store) {
	t.Helper()
	client, _ := testutil.NewRedis(t)
	listings := listing.NewStore(store.NewRedisStore(client))
	require.NoError(t, listings.Create(context.Background(), &domain.Listing{
		ID:     "L1",
		Seller: seller,
		FAQ:    []domain.FAQEntry{{Question: "old", Answer: "1"}},
	}))
	return NewSequencer(listings, questions), listings
}

func TestSequencer_ThreeAnswersReachDone(t *testing.T) {
	ctx := context.Background()
	s, listings := newSequencer(t)

	data, first, err := s.Start(ctx, seller, "L1")
	require.NoError(t, err)
	assert.Equal(t, "Asking price?", first)
	assert.Equal(t, state.FAQSetupData{ListingID: "L1"}, data)

	l, err := listings.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Empty(t, l.FAQ)

	var done int
	for i, answer := range []string{"50", "abc", "40", " 45 "} {
		res, err := s.Answer(ctx, seller, data, answer)
		require.NoError(t, err, "answer %d", i)
		data = res.Data
		if res.Outcome == OutcomeDone {
			done++
		}
	}

	assert.Equal(t, 1, done)
	assert.Equal(t, 3, data.QuestionsAnswered)

	l, err = listings.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(45), l.Price)
	assert.Equal(t, []domain.FAQEntry{
		{Question: "Asking price?", Answer: "50"},
		{Question: "Lowest price?", Answer: "40"},
		{Question: "Price today?", Answer: "45"},
	}, l.FAQ)
}

func TestSequencer_InvalidAnswersNeverAdvance(t *testing.T) {
	ctx := context.Background()
	s, listings := newSequencer(t)

	data, _, err := s.Start(ctx, seller, "L1")
	require.NoError(t, err)
	res, err := s.Answer(ctx, seller, data, "10")
	require.NoError(t, err)
	data = res.Data

	for _, input := range []string{"", "ten", "-3", "4.5", "12abc"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			res, err := s.Answer(ctx, seller, data, input)
			require.NoError(t, err)
			assert.Equal(t, OutcomeRetry, res.Outcome)
			assert.Equal(t, data, res.Data)
			assert.Equal(t, "Lowest price?", res.Question)
		})
	}

	l, err := listings.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), l.Price)
	assert.Len(t, l.FAQ, 1)
}

func TestSequencer_FewerAnswersNeverDone(t *testing.T) {
	ctx := context.Background()
	s, _ := newSequencer(t)

	data, _, err := s.Start(ctx, seller, "L1")
	require.NoError(t, err)
	for i := 0; i < s.Total()-1; i++ {
		res, err := s.Answer(ctx, seller, data, "5")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNext, res.Outcome)
		assert.Equal(t, questions[i+1], res.Question)
		data = res.Data
	}
}

func TestSequencer_OnlySeller(t *testing.T) {
	ctx := context.Background()
	s, _ := newSequencer(t)

	_, _, err := s.Start(ctx, 99, "L1")
	assert.ErrorIs(t, err, ErrNotSeller)

	_, err = s.Answer(ctx, 99, state.FAQSetupData{ListingID: "L1"}, "5")
	assert.ErrorIs(t, err, ErrNotSeller)

	_, _, err = s.Start(ctx, seller, "missing")
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func TestFormat(t *testing.T) {
	out := Format([]domain.FAQEntry{{Question: "a", Answer: "1"}, {Question: "b", Answer: "2"}}, func(q, a string) string {
		return q + "=" + a
	})
	assert.Equal(t, "a=1\n\nb=2", out)
}
