package waitlist

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/store"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

const seller int64 = 100

type recorder struct {
	mu     sync.Mutex
	events []HeadChanged
}

func (r *recorder) OnHeadChanged(_ context.Context, ev HeadChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) promoted() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, ev := range r.events {
		if ev.NewHead != 0 {
			out = append(out, ev.NewHead)
		}
	}
	return out
}

func newManager(t testing.TB) (*Manager, *listing.Store) {
	t.Helper()
	client, _ := testutil.NewRedis(t)
	listings := listing.NewStore(store.NewRedisStore(client, store.WithMaxConflictRetries(1000)))
	return NewManager(listings, nil), listings
}

func createListing(t testing.TB, listings *listing.Store, id string, hasQueue bool) {
	t.Helper()
	require.NoError(t, listings.Create(context.Background(), &domain.Listing{
		ID:       id,
		Title:    "Lamp",
		Seller:   seller,
		HasQueue: hasQueue,
	}))
}

func TestManager_AddAddLeaveScenario(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "L1", true)
	rec := &recorder{}
	m.Subscribe(rec)

	const b1, b2 int64 = 1, 2

	mut, err := m.Enqueue(ctx, "L1", b1)
	require.NoError(t, err)
	assert.Equal(t, []int64{b1}, mut.After)
	assert.Equal(t, b1, mut.PromotedUser())

	mut, err = m.Enqueue(ctx, "L1", b2)
	require.NoError(t, err)
	assert.Equal(t, []int64{b1, b2}, mut.After)
	assert.Nil(t, mut.Head)
	assert.Equal(t, 1, mut.Position(b2))

	mut, err = m.Dequeue(ctx, "L1", b1)
	require.NoError(t, err)
	assert.Equal(t, []int64{b2}, mut.After)
	require.NotNil(t, mut.Head)
	assert.Equal(t, HeadChanged{ListingID: "L1", Title: "Lamp", PreviousHead: b1, NewHead: b2}, *mut.Head)

	assert.Equal(t, []int64{b1, b2}, rec.promoted())
}

func TestManager_EnqueueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "L1", true)

	_, err := m.Enqueue(ctx, "L1", 1)
	require.NoError(t, err)
	mut, err := m.Enqueue(ctx, "L1", 1)
	require.NoError(t, err)
	assert.False(t, mut.Changed)
	assert.Nil(t, mut.Head)
	require.NotNil(t, mut.Listing)

	members, err := m.Members(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, members)
}

func TestManager_Errors(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "open", true)
	createListing(t, listings, "closed", false)

	_, err := m.Enqueue(ctx, "open", seller)
	assert.ErrorIs(t, err, ErrSellerInQueue)

	_, err = m.Enqueue(ctx, "closed", 1)
	assert.ErrorIs(t, err, ErrNoQueue)

	_, err = m.Enqueue(ctx, "missing", 1)
	assert.ErrorIs(t, err, listing.ErrNotFound)

	_, err = m.Dequeue(ctx, "open", 1)
	assert.ErrorIs(t, err, ErrNotMember)

	members, err := m.Members(ctx, "open")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestManager_RemovingNonHeadKeepsHead(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "L1", true)
	rec := &recorder{}

	for _, u := range []int64{1, 2, 3, 4} {
		_, err := m.Enqueue(ctx, "L1", u)
		require.NoError(t, err)
	}
	m.Subscribe(rec)

	mut, err := m.Dequeue(ctx, "L1", 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4}, mut.After)
	assert.Nil(t, mut.Head)
	assert.Empty(t, rec.promoted())

	mut, err = m.Dequeue(ctx, "L1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mut.PromotedUser())
	assert.Equal(t, []int64{2}, rec.promoted())
}

func TestManager_LastMemberLeavingEmptiesHead(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "L1", true)
	rec := &recorder{}
	m.Subscribe(rec)

	_, err := m.Enqueue(ctx, "L1", 1)
	require.NoError(t, err)
	mut, err := m.Dequeue(ctx, "L1", 1)
	require.NoError(t, err)

	require.NotNil(t, mut.Head)
	assert.Equal(t, int64(0), mut.Head.NewHead)
	assert.Equal(t, int64(0), mut.PromotedUser())
	assert.Len(t, rec.events, 2)
}

func TestManager_ConcurrentEnqueuesLoseNothing(t *testing.T) {
	ctx := context.Background()
	m, listings := newManager(t)
	createListing(t, listings, "L1", true)
	rec := &recorder{}
	m.Subscribe(rec)

	const buyers = 25
	var wg sync.WaitGroup
	for i := 1; i <= buyers; i++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, err := m.Enqueue(ctx, "L1", u)
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	members, err := m.Members(ctx, "L1")
	require.NoError(t, err)
	assert.Len(t, members, buyers)
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	assert.Equal(t, len(sorted), len(slices.Compact(sorted)))
	assert.Len(t, rec.promoted(), 1)
}

func TestManager_QueueProperties(t *testing.T) {
	m, listings := newManager(t)
	run := 0

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		run++
		id := fmt.Sprintf("L%d", run)
		createListing(t, listings, id, true)

		var model []int64
		ops := rapid.SliceOfN(rapid.IntRange(-6, 6), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			if op == 0 {
				continue
			}
			user := int64(op)
			if user < 0 {
				user = -user
			}

			if op > 0 {
				mut, err := m.Enqueue(ctx, id, user)
				if err != nil {
					rt.Fatalf("enqueue %d: %v", user, err)
				}
				if !slices.Contains(model, user) {
					model = append(model, user)
				}
				if !slices.Equal(model, mut.After) {
					rt.Fatalf("after enqueue %d: got %v want %v", user, mut.After, model)
				}
				continue
			}

			mut, err := m.Dequeue(ctx, id, user)
			idx := slices.Index(model, user)
			if idx < 0 {
				if err == nil {
					rt.Fatalf("dequeue of absent %d succeeded", user)
				}
				continue
			}
			if err != nil {
				rt.Fatalf("dequeue %d: %v", user, err)
			}
			model = slices.Delete(model, idx, idx+1)
			if !slices.Equal(model, mut.After) {
				rt.Fatalf("after dequeue %d: got %v want %v", user, mut.After, model)
			}
			if idx == 0 && len(model) > 0 && mut.PromotedUser() != model[0] {
				rt.Fatalf("expected %d promoted, got %d", model[0], mut.PromotedUser())
			}
			if idx > 0 && mut.Head != nil {
				rt.Fatalf("non-head removal changed head")
			}
		}
	})
}
