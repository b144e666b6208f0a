package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/internal/waitlist"
)

func (r *Router) buyer(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.Text("buyer.no_queue"))
	return reset(), nil
}

func (r *Router) addQueue(ctx context.Context, t *turn) (next, error) {
	mut, err := r.waitlist.Enqueue(ctx, t.listing.ID, t.sender())
	switch {
	case errors.Is(err, waitlist.ErrSellerInQueue):
		r.reply(ctx, t, t.menus.Text("buyer.seller_cannot_join"))
		return keep(), nil
	case errors.Is(err, waitlist.ErrNoQueue):
		r.reply(ctx, t, t.menus.Text("buyer.no_queue"))
		return reset(), nil
	case errors.Is(err, listing.ErrNotFound):
		r.reply(ctx, t, t.menus.Text("general.listing_missing"))
		return reset(), nil
	case err != nil:
		return next{}, fmt.Errorf("enqueue: %w", err)
	}

	l := mut.Listing
	if err := r.dir.Add(ctx, t.sender(), l.ID, domain.RoleWatching); err != nil {
		return next{}, err
	}

	if mut.Changed {
		r.log.InfoContext(ctx, "buyer joined waitlist",
			slog.Int64("user_id", t.sender()),
			slog.String("listing_id", l.ID),
			slog.Int("position", mut.Position(t.sender())),
		)
		r.notifier.Send(ctx, l.Seller,
			t.menus.Text("seller.someone_joined", "title", l.DisplayTitle()),
			notify.Text(t.menus.SellerSummary(l, r.displayName(ctx))),
		)
	}

	// The promoter already moved a new head into the offer step and sent the offer.
	if mut.PromotedUser() == t.sender() {
		return keep(), nil
	}

	msgs := make([]notify.Message, 0, 3)
	if mut.Changed {
		msgs = append(msgs, t.menus.Text("buyer.joined", "title", l.DisplayTitle()))
	}
	msgs = append(msgs, notify.Text(t.menus.QueueStatus(l, t.sender())), t.menus.StatusMenu())
	r.reply(ctx, t, msgs...)

	return moveTo(state.BuyerStatusData{ListingID: l.ID}), nil
}

func (r *Router) skipQueue(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.NextActionMenu())
	return keep(), nil
}

func (r *Router) leaveQueue(ctx context.Context, t *turn) (next, error) {
	l := t.listing
	return r.leave(ctx, t,
		t.menus.Text("buyer.left", "title", l.DisplayTitle()),
		t.menus.Text("buyer.someone_left"),
	)
}

func (r *Router) declineOffer(ctx context.Context, t *turn) (next, error) {
	l := t.listing
	return r.leave(ctx, t,
		t.menus.Text("offer.declined_buyer", "title", l.DisplayTitle()),
		t.menus.Text("offer.declined_seller", "buyer", r.dir.DisplayName(ctx, t.sender()), "title", l.DisplayTitle()),
	)
}

// leave removes the sender from the waitlist. Everyone still waiting learns their new
// position and the seller gets sellerNote followed by the queue summary.
func (r *Router) leave(ctx context.Context, t *turn, confirmation, sellerNote notify.Message) (next, error) {
	mut, err := r.waitlist.Dequeue(ctx, t.listing.ID, t.sender())
	switch {
	case errors.Is(err, waitlist.ErrNotMember):
		r.reply(ctx, t, t.menus.Text("buyer.not_in_queue"))
		return reset(), nil
	case errors.Is(err, listing.ErrNotFound):
		r.reply(ctx, t, t.menus.Text("general.listing_missing"))
		return reset(), nil
	case err != nil:
		return next{}, fmt.Errorf("dequeue: %w", err)
	}

	l := mut.Listing
	if err := r.dir.Remove(ctx, t.sender(), l.ID, domain.RoleWatching); err != nil {
		return next{}, err
	}

	r.log.InfoContext(ctx, "buyer left waitlist",
		slog.Int64("user_id", t.sender()),
		slog.String("listing_id", l.ID),
		slog.Int("remaining", len(mut.After)),
	)

	r.reply(ctx, t, confirmation)

	r.notifier.FanOut(ctx, mut.After, func(recipient int64) []notify.Message {
		return []notify.Message{
			t.menus.Text("buyer.someone_left"),
			notify.Text(t.menus.QueueStatus(l, recipient)),
		}
	})
	r.notifier.Send(ctx, l.Seller, sellerNote, notify.Text(t.menus.SellerSummary(l, r.displayName(ctx))))

	return reset(), nil
}

// acceptOffer keeps the buyer at the head and hands the contact over to the seller.
func (r *Router) acceptOffer(ctx context.Context, t *turn) (next, error) {
	l := t.listing
	if l.Head() != t.sender() {
		r.reply(ctx, t, t.menus.Text("buyer.not_in_queue"))
		return reset(), nil
	}

	r.log.InfoContext(ctx, "offer accepted",
		slog.Int64("user_id", t.sender()),
		slog.String("listing_id", l.ID),
		slog.Int64("price", l.Price),
	)

	r.notifier.Send(ctx, l.Seller, t.menus.Text("offer.accepted_seller",
		"buyer", r.dir.DisplayName(ctx, t.sender()),
		"price", l.Price,
		"title", l.DisplayTitle(),
	))
	r.reply(ctx, t, t.menus.Text("offer.accepted_buyer", "title", l.DisplayTitle()))

	return reset(), nil
}

// showFAQ prints the listing FAQ and repeats the menu of the current step.
func (r *Router) showFAQ(ctx context.Context, t *turn) (next, error) {
	l := t.listing
	msgs := []notify.Message{notify.Text(t.menus.FAQ(l))}

	switch {
	case t.uc.State == state.StateBuyerAddQueue:
		msgs = append(msgs, t.menus.JoinMenu())
	case t.uc.State == state.StateBuyerStatus:
		msgs = append(msgs, t.menus.StatusMenu())
	case t.uc.State == state.StateAcceptPrice:
		msgs = append(msgs, t.menus.OfferQuestion(l))
	case l.IsSeller(t.sender()) && t.uc.State == state.StateFAQDone:
		msgs = append(msgs, t.menus.SellerMenu(l.DisplayTitle()))
	default:
		msgs = append(msgs, t.menus.NextActionMenu())
	}

	r.reply(ctx, t, msgs...)
	return keep(), nil
}
