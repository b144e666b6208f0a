// Package listing persists listings in the key/value store.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/store"
)

var (
	ErrNotFound = errors.New("listing not found")
	ErrExists   = errors.New("listing already exists")
)

// Store reads and mutates listings.
type Store struct {
	kv  store.Store
	now func() time.Time
}

// NewStore wraps a key/value store.
func NewStore(kv store.Store) *Store {
	return &Store{kv: kv, now: time.Now}
}

func path(id string) string {
	return "listings/" + id
}

// Get loads a listing by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.kv.Once(ctx, path(id), &l); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return &l, nil
}

// Create stores l unless a listing with the same id exists.
func (s *Store) Create(ctx context.Context, l *domain.Listing) error {
	now := s.now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if l.Queue == nil {
		l.Queue = []int64{}
	}
	if l.FAQ == nil {
		l.FAQ = []domain.FAQEntry{}
	}

	if err := l.Validate(); err != nil {
		return err
	}

	err := s.kv.Transaction(ctx, path(l.ID), func(current []byte) ([]byte, error) {
		if current != nil {
			return nil, ErrExists
		}
		return json.Marshal(l)
	})
	if err != nil {
		if errors.Is(err, ErrExists) {
			return err
		}
		return fmt.Errorf("create listing %s: %w", l.ID, err)
	}
	return nil
}

// Update applies fn to the stored listing as a compare-and-set. fn may run more
// than once under contention and must only touch the listing it receives. If fn
// returns an error nothing is written and the error is returned as is.
func (s *Store) Update(ctx context.Context, id string, fn func(*domain.Listing) error) (*domain.Listing, error) {
	var updated *domain.Listing

	err := s.kv.Transaction(ctx, path(id), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}

		var l domain.Listing
		if err := json.Unmarshal(current, &l); err != nil {
			return nil, fmt.Errorf("decode listing %s: %w", id, err)
		}
		if err := fn(&l); err != nil {
			return nil, err
		}
		l.UpdatedAt = s.now().UTC()
		if err := l.Validate(); err != nil {
			return nil, err
		}

		updated = &l
		return json.Marshal(&l)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the listing and returns what was stored.
func (s *Store) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.kv.Take(ctx, path(id), &l); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete listing %s: %w", id, err)
	}
	return &l, nil
}

// SetPrice records the asking price.
func (s *Store) SetPrice(ctx context.Context, id string, price int64) (*domain.Listing, error) {
	return s.Update(ctx, id, func(l *domain.Listing) error {
		l.Price = price
		return nil
	})
}

// ResetFAQ drops every FAQ entry.
func (s *Store) ResetFAQ(ctx context.Context, id string) (*domain.Listing, error) {
	return s.Update(ctx, id, func(l *domain.Listing) error {
		l.FAQ = []domain.FAQEntry{}
		return nil
	})
}

// AppendFAQ adds an entry at the end of the FAQ.
func (s *Store) AppendFAQ(ctx context.Context, id string, entry domain.FAQEntry) (*domain.Listing, error) {
	return s.Update(ctx, id, func(l *domain.Listing) error {
		l.FAQ = append(l.FAQ, entry)
		return nil
	})
}
