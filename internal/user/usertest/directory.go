// Package usertest provides an in-memory user directory for tests.
package usertest

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/Proton-105/queue-bot/internal/domain"
)

type membership struct {
	userID int64
	role   domain.Role
}

// Directory keeps listing sets in memory, preserving insertion order.
type Directory struct {
	mu    sync.Mutex
	sets  map[membership][]string
	names map[int64]string
}

func NewDirectory() *Directory {
	return &Directory{sets: map[membership][]string{}, names: map[int64]string{}}
}

// SetName registers a display name.
func (d *Directory) SetName(userID int64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[userID] = name
}

func (d *Directory) Add(_ context.Context, userID int64, listingID string, role domain.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := membership{userID, role}
	if !slices.Contains(d.sets[key], listingID) {
		d.sets[key] = append(d.sets[key], listingID)
	}
	return nil
}

func (d *Directory) Remove(_ context.Context, userID int64, listingID string, role domain.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := membership{userID, role}
	d.sets[key] = slices.DeleteFunc(d.sets[key], func(id string) bool { return id == listingID })
	return nil
}

func (d *Directory) ForgetListing(_ context.Context, listingID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, ids := range d.sets {
		d.sets[key] = slices.DeleteFunc(ids, func(id string) bool { return id == listingID })
	}
	return nil
}

func (d *Directory) Listings(_ context.Context, userID int64, role domain.Role) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sets[membership{userID, role}]), nil
}

func (d *Directory) DisplayName(_ context.Context, userID int64) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name, ok := d.names[userID]; ok {
		return name
	}
	return strconv.FormatInt(userID, 10)
}
