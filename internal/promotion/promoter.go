// Package promotion hands the seller's offer to whoever becomes head of a waitlist.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/menu"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/internal/waitlist"
	"github.com/Proton-105/queue-bot/pkg/metrics"
)

// RetryScheduler defers a promotion that could not take the user's lock in time.
type RetryScheduler interface {
	EnqueuePromotionRetry(ctx context.Context, listingID string, userID int64) error
}

// Promoter listens for head changes and moves the new head into the offer step.
type Promoter struct {
	fsm      state.StateMachine
	listings *listing.Store
	notifier *notify.Dispatcher
	menus    *menu.Builder
	retry    RetryScheduler
	log      *slog.Logger
}

func NewPromoter(fsm state.StateMachine, listings *listing.Store, notifier *notify.Dispatcher, menus *menu.Builder, log *slog.Logger) *Promoter {
	if log == nil {
		log = slog.Default()
	}
	return &Promoter{
		fsm:      fsm,
		listings: listings,
		notifier: notifier,
		menus:    menus,
		log:      log,
	}
}

// SetRetryScheduler wires the background queue. Without it a busy head is only logged.
func (p *Promoter) SetRetryScheduler(r RetryScheduler) {
	p.retry = r
}

// OnHeadChanged implements waitlist.Listener.
func (p *Promoter) OnHeadChanged(ctx context.Context, ev waitlist.HeadChanged) {
	if ev.NewHead == 0 {
		return
	}

	err := p.promote(ctx, ev.ListingID, ev.NewHead)
	switch {
	case err == nil:
		return
	case errors.Is(err, state.ErrStateLocked) && p.retry != nil:
		if qErr := p.retry.EnqueuePromotionRetry(ctx, ev.ListingID, ev.NewHead); qErr != nil {
			metrics.RecordPromotion("error")
			p.log.ErrorContext(ctx, "failed to schedule promotion retry",
				slog.String("listing_id", ev.ListingID),
				slog.Int64("user_id", ev.NewHead),
				slog.Any("error", qErr),
			)
			return
		}
		metrics.RecordPromotion("deferred")
		p.log.InfoContext(ctx, "promotion deferred, head is busy",
			slog.String("listing_id", ev.ListingID),
			slog.Int64("user_id", ev.NewHead),
		)
	default:
		metrics.RecordPromotion("error")
		p.log.ErrorContext(ctx, "promotion failed",
			slog.String("listing_id", ev.ListingID),
			slog.Int64("user_id", ev.NewHead),
			slog.Any("error", err),
		)
	}
}

// Retry promotes userID if they are still the head of the listing. It is called by
// the background worker; a lock that is still busy is returned as an error so the
// task is retried.
func (p *Promoter) Retry(ctx context.Context, listingID string, userID int64) error {
	l, err := p.listings.Get(ctx, listingID)
	if errors.Is(err, listing.ErrNotFound) {
		metrics.RecordPromotion("stale")
		return nil
	}
	if err != nil {
		return err
	}
	if l.Head() != userID {
		metrics.RecordPromotion("stale")
		return nil
	}

	return p.promote(ctx, listingID, userID)
}

func (p *Promoter) promote(ctx context.Context, listingID string, userID int64) error {
	l, err := p.listings.Get(ctx, listingID)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}

	lockCtx, release, err := p.fsm.Lock(ctx, userID)
	if err != nil {
		return err
	}
	err = p.fsm.Force(lockCtx, userID, state.OfferData{ListingID: listingID})
	release()
	if err != nil {
		return fmt.Errorf("set offer context: %w", err)
	}

	p.notifier.Send(ctx, userID, p.menus.Promoted(l)...)
	metrics.RecordPromotion("ok")

	p.log.InfoContext(ctx, "waitlist head promoted",
		slog.String("listing_id", listingID),
		slog.Int64("user_id", userID),
	)
	return nil
}
