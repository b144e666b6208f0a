package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/faq"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/state"
)

var errNotSeller = errors.New("listing belongs to another seller")

func categorizeData(t *turn) state.CategorizeData {
	data, _ := t.uc.Data.(state.CategorizeData)
	return data
}

func titleOr(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

func (r *Router) seller(ctx context.Context, t *turn) (next, error) {
	data := categorizeData(t)
	if err := r.dir.Add(ctx, t.sender(), data.ListingID, domain.RoleSelling); err != nil {
		return next{}, err
	}

	r.reply(ctx, t, t.menus.SetupQueuePrompt(titleOr(data.Title, data.ListingID)))
	return keep(), nil
}

// setupQueue creates the listing with an empty waitlist, or opens the waitlist of a
// listing the seller already owns.
func (r *Router) setupQueue(ctx context.Context, t *turn) (next, error) {
	data := categorizeData(t)

	l := &domain.Listing{
		ID:       data.ListingID,
		Title:    data.Title,
		Seller:   t.sender(),
		HasQueue: true,
	}
	err := r.listings.Create(ctx, l)
	if errors.Is(err, listing.ErrExists) {
		l, err = r.listings.Update(ctx, data.ListingID, func(existing *domain.Listing) error {
			if !existing.IsSeller(t.sender()) {
				return errNotSeller
			}
			existing.HasQueue = true
			return nil
		})
	}
	switch {
	case errors.Is(err, errNotSeller):
		r.reply(ctx, t, t.menus.Text("general.seller_only"))
		return reset(), nil
	case err != nil:
		return next{}, fmt.Errorf("create listing: %w", err)
	}

	if err := r.dir.Add(ctx, t.sender(), l.ID, domain.RoleSelling); err != nil {
		return next{}, err
	}

	r.log.InfoContext(ctx, "waitlist created",
		slog.Int64("user_id", t.sender()),
		slog.String("listing_id", l.ID),
	)

	r.reply(ctx, t, t.menus.FAQPrompt(l.DisplayTitle()))
	return keep(), nil
}

func (r *Router) setupFAQ(ctx context.Context, t *turn) (next, error) {
	data, question, err := r.faq.Start(ctx, t.sender(), t.listing.ID)
	switch {
	case errors.Is(err, faq.ErrNotSeller):
		r.reply(ctx, t, t.menus.Text("general.seller_only"))
		return keep(), nil
	case err != nil:
		return next{}, fmt.Errorf("start faq: %w", err)
	}

	r.reply(ctx, t, notify.Text(question))
	return moveTo(data), nil
}

func (r *Router) skipFAQ(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.SellerMenu(t.listing.DisplayTitle()))
	return moveTo(state.SellerData{ListingID: t.listing.ID}), nil
}

func (r *Router) displayQueue(ctx context.Context, t *turn) (next, error) {
	l := t.listing
	r.reply(ctx, t,
		notify.Text(t.menus.SellerSummary(l, r.displayName(ctx))),
		t.menus.SellerMenu(l.DisplayTitle()),
	)
	return keep(), nil
}

// removeListing deletes the listing and tells everyone who was waiting for it.
func (r *Router) removeListing(ctx context.Context, t *turn) (next, error) {
	l, err := r.listings.Delete(ctx, t.listing.ID)
	if errors.Is(err, listing.ErrNotFound) {
		r.reply(ctx, t, t.menus.Text("general.listing_missing"))
		return reset(), nil
	}
	if err != nil {
		return next{}, err
	}

	if err := r.dir.ForgetListing(ctx, l.ID); err != nil {
		return next{}, err
	}

	r.log.InfoContext(ctx, "listing removed",
		slog.Int64("user_id", t.sender()),
		slog.String("listing_id", l.ID),
		slog.Int("waiting", len(l.Queue)),
	)

	r.notifier.FanOut(ctx, l.Queue, func(int64) []notify.Message {
		return []notify.Message{t.menus.Text("buyer.listing_removed", "title", l.DisplayTitle())}
	})
	r.reply(ctx, t, t.menus.Text("seller.removed", "title", l.DisplayTitle()))

	return reset(), nil
}
