package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/queue-bot/internal/faq"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/state"
)

// openListing starts the flow for a listing the user sent a link to.
func (r *Router) openListing(ctx context.Context, t *turn, ref ListingRef) (next, error) {
	l, err := r.listings.Get(ctx, ref.ID)
	if errors.Is(err, listing.ErrNotFound) {
		title := ref.Title
		if title == "" {
			title = ref.ID
		}
		r.reply(ctx, t, t.menus.Categorize(title))
		return moveTo(state.CategorizeData{ListingID: ref.ID, Title: ref.Title}), nil
	}
	if err != nil {
		return next{}, err
	}

	r.log.InfoContext(ctx, "listing opened",
		slog.Int64("user_id", t.sender()),
		slog.String("listing_id", l.ID),
		slog.Bool("seller", l.IsSeller(t.sender())),
	)

	if l.IsSeller(t.sender()) {
		if !l.HasQueue {
			r.reply(ctx, t, t.menus.SetupQueuePrompt(l.DisplayTitle()))
			return moveTo(state.CategorizeData{ListingID: l.ID, Title: l.Title}), nil
		}
		r.reply(ctx, t, t.menus.SellerMenu(l.DisplayTitle()))
		return moveTo(state.SellerData{ListingID: l.ID}), nil
	}

	if !l.HasQueue {
		r.reply(ctx, t, t.menus.Text("buyer.no_queue"))
		return reset(), nil
	}

	// A head with an open offer keeps answering it.
	if t.uc.State == state.StateAcceptPrice && t.uc.ListingID() == l.ID && l.Head() == t.sender() {
		r.reply(ctx, t, t.menus.OfferQuestion(l))
		return keep(), nil
	}

	status := notify.Text(t.menus.QueueStatus(l, t.sender()))
	if l.Position(t.sender()) < 0 {
		r.reply(ctx, t, status, t.menus.JoinMenu())
		return moveTo(state.BuyerAddQueueData{ListingID: l.ID}), nil
	}

	r.reply(ctx, t, status, t.menus.StatusMenu())
	return moveTo(state.BuyerStatusData{ListingID: l.ID}), nil
}

// answerFAQ feeds free text to the FAQ sequencer while the seller is in faq_setup.
func (r *Router) answerFAQ(ctx context.Context, t *turn) (next, error) {
	data, ok := t.uc.Data.(state.FAQSetupData)
	if !ok {
		return next{}, errors.New("faq setup context without faq data")
	}

	res, err := r.faq.Answer(ctx, t.sender(), data, t.ev.Text)
	switch {
	case errors.Is(err, faq.ErrNotSeller):
		r.reply(ctx, t, t.menus.Text("general.seller_only"))
		return reset(), nil
	case errors.Is(err, listing.ErrNotFound):
		r.reply(ctx, t, t.menus.Text("general.listing_missing"))
		return reset(), nil
	case err != nil:
		return next{}, err
	}

	switch res.Outcome {
	case faq.OutcomeRetry:
		r.reply(ctx, t, t.menus.Text("faq.retry"), notify.Text(res.Question))
		return keep(), nil
	case faq.OutcomeNext:
		r.reply(ctx, t, notify.Text(res.Question))
		return moveTo(res.Data), nil
	default:
		r.log.InfoContext(ctx, "faq setup finished",
			slog.Int64("user_id", t.sender()),
			slog.String("listing_id", data.ListingID),
			slog.Int64("price", res.Listing.Price),
		)
		r.reply(ctx, t, t.menus.Text("faq.done"), t.menus.SellerMenu(res.Listing.DisplayTitle()))
		return moveTo(state.SellerData{ListingID: data.ListingID}), nil
	}
}
