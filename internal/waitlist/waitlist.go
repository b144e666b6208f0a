// Package waitlist maintains the per-listing FIFO queue of interested buyers and
// announces changes of the queue head.
package waitlist

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/pkg/metrics"
)

var (
	ErrNoQueue       = errors.New("listing has no waitlist")
	ErrSellerInQueue = errors.New("seller cannot join own waitlist")
	ErrNotMember     = errors.New("user is not in the waitlist")

	errUnchanged = errors.New("waitlist unchanged")
)

// HeadChanged is raised when position 0 of a waitlist changes identity.
// A zero NewHead means the waitlist became empty.
type HeadChanged struct {
	ListingID    string
	Title        string
	PreviousHead int64
	NewHead      int64
}

// Listener is notified synchronously after a mutation is committed.
type Listener interface {
	OnHeadChanged(ctx context.Context, ev HeadChanged)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev HeadChanged)

func (f ListenerFunc) OnHeadChanged(ctx context.Context, ev HeadChanged) { f(ctx, ev) }

// Mutation describes the outcome of an Enqueue or Dequeue.
type Mutation struct {
	ListingID string
	Listing   *domain.Listing
	Before    []int64
	After     []int64
	Changed   bool
	Head      *HeadChanged
}

// Position returns the zero-based index of userID after the mutation, or -1.
func (m Mutation) Position(userID int64) int {
	return lo.IndexOf(m.After, userID)
}

// PromotedUser returns the user that became head through this mutation, or 0.
func (m Mutation) PromotedUser() int64 {
	if m.Head == nil {
		return 0
	}
	return m.Head.NewHead
}

// Manager performs atomic waitlist mutations on top of the listing store.
type Manager struct {
	listings *listing.Store
	log      *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func NewManager(listings *listing.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{listings: listings, log: log}
}

// Subscribe registers l for HeadChanged events.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Members returns an ordered snapshot of the waitlist.
func (m *Manager) Members(ctx context.Context, listingID string) ([]int64, error) {
	l, err := m.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(l.Queue), nil
}

// Enqueue appends userID at the tail. Enqueueing a member again is a no-op.
func (m *Manager) Enqueue(ctx context.Context, listingID string, userID int64) (Mutation, error) {
	return m.mutate(ctx, "enqueue", listingID, func(l *domain.Listing) error {
		if !l.HasQueue {
			return ErrNoQueue
		}
		if l.IsSeller(userID) {
			return ErrSellerInQueue
		}
		if lo.Contains(l.Queue, userID) {
			return errUnchanged
		}
		l.Queue = append(l.Queue, userID)
		return nil
	})
}

// Dequeue removes userID wherever it sits, keeping the order of the others.
func (m *Manager) Dequeue(ctx context.Context, listingID string, userID int64) (Mutation, error) {
	return m.mutate(ctx, "dequeue", listingID, func(l *domain.Listing) error {
		if !lo.Contains(l.Queue, userID) {
			return ErrNotMember
		}
		l.Queue = lo.Without(l.Queue, userID)
		return nil
	})
}

func (m *Manager) mutate(ctx context.Context, op, listingID string, fn func(*domain.Listing) error) (Mutation, error) {
	var (
		before   []int64
		snapshot *domain.Listing
	)

	updated, err := m.listings.Update(ctx, listingID, func(l *domain.Listing) error {
		before = slices.Clone(l.Queue)
		err := fn(l)
		if errors.Is(err, errUnchanged) {
			cp := *l
			snapshot = &cp
		}
		return err
	})

	switch {
	case errors.Is(err, errUnchanged):
		metrics.RecordWaitlistOperation(op, "noop")
		return Mutation{
			ListingID: listingID,
			Listing:   snapshot,
			Before:    before,
			After:     slices.Clone(before),
		}, nil
	case err != nil:
		metrics.RecordWaitlistOperation(op, resultLabel(err))
		return Mutation{ListingID: listingID}, err
	}
	metrics.RecordWaitlistOperation(op, "ok")

	mut := Mutation{
		ListingID: listingID,
		Listing:   updated,
		Before:    before,
		After:     slices.Clone(updated.Queue),
		Changed:   true,
	}

	prev, next := headOf(before), headOf(mut.After)
	if prev != next {
		mut.Head = &HeadChanged{
			ListingID:    listingID,
			Title:        updated.DisplayTitle(),
			PreviousHead: prev,
			NewHead:      next,
		}
		m.log.InfoContext(ctx, "waitlist head changed",
			slog.String("listing_id", listingID),
			slog.Int64("previous_head", prev),
			slog.Int64("new_head", next),
		)
		m.publish(ctx, *mut.Head)
	}

	return mut, nil
}

func (m *Manager) publish(ctx context.Context, ev HeadChanged) {
	m.mu.RLock()
	listeners := slices.Clone(m.listeners)
	m.mu.RUnlock()

	for _, l := range listeners {
		l.OnHeadChanged(ctx, ev)
	}
}

func headOf(queue []int64) int64 {
	if len(queue) == 0 {
		return 0
	}
	return queue[0]
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNoQueue):
		return "no_queue"
	case errors.Is(err, ErrSellerInQueue):
		return "seller"
	case errors.Is(err, ErrNotMember):
		return "not_member"
	case errors.Is(err, listing.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
