// Package store is the persistent key/value layer behind listings. Values are JSON
// documents addressed by "/"-separated paths.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when nothing is stored at a path.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a transaction keeps losing races.
	ErrConflict = errors.New("store: too many concurrent updates")
)

// TxFunc receives the bytes currently stored at a path (nil when absent) and returns
// the bytes to store. Returning nil bytes and a nil error leaves the value untouched;
// returning an error aborts the transaction and is passed back to the caller unchanged.
// It may be invoked more than once when concurrent writers race.
type TxFunc func(current []byte) ([]byte, error)

// Store is the persistence contract used by the domain packages.
type Store interface {
	Once(ctx context.Context, path string, dest any) error
	Set(ctx context.Context, path string, value any) error
	Delete(ctx context.Context, path string) error
	// Take atomically reads and deletes the value at path.
	Take(ctx context.Context, path string, dest any) error
	Transaction(ctx context.Context, path string, fn TxFunc) error
}
