// Package state keeps the per-user conversation context and serializes the
// handling of events from the same user.
package state

import "context"

// Storage defines the persistence contract for conversation contexts.
type Storage interface {
	// GetState returns the stored context or ErrStateNotFound.
	GetState(ctx context.Context, userID int64) (*UserContext, error)
	// SetState replaces the stored context.
	SetState(ctx context.Context, userID int64, uc *UserContext) error
	// ClearState removes the stored context.
	ClearState(ctx context.Context, userID int64) error
	// GetAllStates returns every stored context.
	GetAllStates(ctx context.Context) ([]*UserContext, error)
}
