package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/notify"
)

func (r *Router) getStarted(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.Welcome()...)
	return keep(), nil
}

func (r *Router) quit(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.Text("general.goodbye"))
	return reset(), nil
}

func (r *Router) notSupported(ctx context.Context, t *turn) (next, error) {
	r.reply(ctx, t, t.menus.Text("general.not_supported"))
	return keep(), nil
}

// showListings lists what the sender sells together with the waitlist sizes.
func (r *Router) showListings(ctx context.Context, t *turn) (next, error) {
	listings, err := r.load(ctx, t.sender(), domain.RoleSelling)
	if err != nil {
		return next{}, err
	}
	if len(listings) == 0 {
		r.reply(ctx, t, t.menus.Text("listings.none"))
		return keep(), nil
	}

	lines := []string{t.menus.T().T("listings.header")}
	for _, l := range listings {
		lines = append(lines, t.menus.T().F("listings.line", "title", l.DisplayTitle(), "count", len(l.Queue)))
	}
	r.reply(ctx, t, notify.Text(strings.Join(lines, "\n")))
	return keep(), nil
}

// showInterests lists the waitlists the sender is in with their position.
func (r *Router) showInterests(ctx context.Context, t *turn) (next, error) {
	listings, err := r.load(ctx, t.sender(), domain.RoleWatching)
	if err != nil {
		return next{}, err
	}

	lines := []string{t.menus.T().T("interests.header")}
	for _, l := range listings {
		pos := l.Position(t.sender())
		if pos < 0 {
			continue
		}
		lines = append(lines, t.menus.T().F("interests.line", "title", l.DisplayTitle(), "position", pos+1))
	}
	if len(lines) == 1 {
		r.reply(ctx, t, t.menus.Text("interests.none"))
		return keep(), nil
	}

	r.reply(ctx, t, notify.Text(strings.Join(lines, "\n")))
	return keep(), nil
}

// load resolves the listing ids of a directory set, skipping listings that are gone.
func (r *Router) load(ctx context.Context, userID int64, role domain.Role) ([]*domain.Listing, error) {
	ids, err := r.dir.Listings(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	listings := make([]*domain.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := r.listings.Get(ctx, id)
		if errors.Is(err, listing.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}
