package state

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Cleaner clears conversation contexts that were not touched for longer than the TTL.
// Redis expiry normally removes them first; the sweep covers keys whose TTL was lost
// or extended, e.g. after a config change.
type Cleaner struct {
	fsm StateMachine
	log *slog.Logger
	ttl time.Duration
	now func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(fsm StateMachine, log *slog.Logger, ttl time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	return &Cleaner{
		fsm: fsm,
		log: log,
		ttl: ttl,
		now: time.Now,
	}
}

// Sweep clears every stale context and returns how many were removed. Users whose
// lock is busy are skipped; they are handling an event right now.
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	states, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, uc := range states {
		if ctx.Err() != nil {
			return cleared, ctx.Err()
		}
		if uc == nil || !c.stale(uc) {
			continue
		}

		ok, err := c.clearIfStale(ctx, uc.UserID)
		if err != nil {
			if errors.Is(err, ErrStateLocked) {
				continue
			}
			c.log.ErrorContext(ctx, "state cleaner failed to clear state", slog.Int64("user_id", uc.UserID), slog.Any("error", err))
			continue
		}
		if ok {
			cleared++
			c.log.InfoContext(ctx, "state session cleared", slog.Int64("user_id", uc.UserID), slog.String("state", string(uc.State)))
		}
	}

	return cleared, nil
}

func (c *Cleaner) clearIfStale(ctx context.Context, userID int64) (bool, error) {
	ctx, release, err := c.fsm.Lock(ctx, userID)
	if err != nil {
		return false, err
	}
	defer release()

	current, err := c.fsm.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if current.IsNone() || !c.stale(current) {
		return false, nil
	}

	return true, c.fsm.Clear(ctx, userID)
}

func (c *Cleaner) stale(uc *UserContext) bool {
	return c.now().Sub(uc.UpdatedAt) > c.ttl
}
