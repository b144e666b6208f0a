package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/faq"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/menu"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/internal/waitlist"
)

type nextAction int

const (
	keepContext nextAction = iota
	clearContext
	setContext
)

// next is the single context write performed after an event.
type next struct {
	action nextAction
	data   state.Payload
}

func keep() next                  { return next{action: keepContext} }
func reset() next                 { return next{action: clearContext} }
func moveTo(p state.Payload) next { return next{action: setContext, data: p} }

// turn carries everything a handler needs about the event being processed.
type turn struct {
	ev      Event
	uc      *state.UserContext
	menus   *menu.Builder
	listing *domain.Listing
}

func (t *turn) sender() int64 { return t.ev.Sender }

// route describes the preconditions of a token.
type route struct {
	// states the sender's context must be in; empty means any.
	states []state.State
	// needsListing requires a context that refers to a listing.
	needsListing bool
	// loadListing loads that listing into the turn.
	loadListing bool
	// sellerOnly rejects everyone but the listing's seller. Implies loadListing.
	sellerOnly bool
	handle     handlerFunc
}

// Deps are the collaborators of a Router.
type Deps struct {
	FSM       state.StateMachine
	Listings  *listing.Store
	Waitlist  *waitlist.Manager
	FAQ       *faq.Sequencer
	Notifier  *notify.Dispatcher
	Directory Directory
	Catalog   *i18n.Manager
	Log       *slog.Logger
}

// Router is the entry point for inbound events.
type Router struct {
	fsm      state.StateMachine
	listings *listing.Store
	waitlist *waitlist.Manager
	faq      *faq.Sequencer
	notifier *notify.Dispatcher
	dir      Directory
	catalog  *i18n.Manager
	log      *slog.Logger

	tokens     map[string]route
	dispatcher *Dispatcher
}

func NewRouter(d Deps) *Router {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := &Router{
		fsm:        d.FSM,
		listings:   d.Listings,
		waitlist:   d.Waitlist,
		faq:        d.FAQ,
		notifier:   d.Notifier,
		dir:        d.Directory,
		catalog:    d.Catalog,
		log:        log,
		dispatcher: newDispatcher(),
	}
	r.registerRoutes()
	return r
}

func (r *Router) registerRoutes() {
	categorize := []state.State{state.StateCategorize}

	r.tokens = map[string]route{
		menu.TokenGetStarted: {handle: r.getStarted},
		menu.TokenBuyer:      {states: categorize, needsListing: true, handle: r.buyer},
		menu.TokenSeller:     {states: categorize, needsListing: true, handle: r.seller},
		menu.TokenSetupQueue: {states: categorize, needsListing: true, handle: r.setupQueue},
		menu.TokenAddQueue: {
			states:       []state.State{state.StateBuyerAddQueue},
			needsListing: true,
			loadListing:  true,
			handle:       r.addQueue,
		},
		menu.TokenSkipQueue: {
			states:       []state.State{state.StateBuyerAddQueue},
			needsListing: true,
			handle:       r.skipQueue,
		},
		menu.TokenLeaveQueue: {
			states:       []state.State{state.StateBuyerStatus, state.StateAcceptPrice},
			needsListing: true,
			loadListing:  true,
			handle:       r.leaveQueue,
		},
		menu.TokenShowFAQ:       {needsListing: true, loadListing: true, handle: r.showFAQ},
		menu.TokenSetupFAQ:      {needsListing: true, sellerOnly: true, handle: r.setupFAQ},
		menu.TokenSkipFAQ:       {needsListing: true, sellerOnly: true, handle: r.skipFAQ},
		menu.TokenDisplayQueue:  {needsListing: true, sellerOnly: true, handle: r.displayQueue},
		menu.TokenRemoveListing: {needsListing: true, sellerOnly: true, handle: r.removeListing},
		menu.TokenShowListings:  {handle: r.showListings},
		menu.TokenShowInterests: {handle: r.showInterests},
		menu.TokenAcceptSellerOffer: {
			states:       []state.State{state.StateAcceptPrice},
			needsListing: true,
			loadListing:  true,
			handle:       r.acceptOffer,
		},
		menu.TokenDeclineSellerOffer: {
			states:       []state.State{state.StateAcceptPrice},
			needsListing: true,
			loadListing:  true,
			handle:       r.declineOffer,
		},
		menu.TokenQuit:         {handle: r.quit},
		menu.TokenConfirmPhoto: {handle: r.notSupported},
		menu.TokenRejectPhoto:  {handle: r.notSupported},
	}

	r.dispatcher.register(state.StateFAQSetup, r.answerFAQ)
}

// Handle processes one event. Events of the same sender are serialized; each event
// ends with at most one context write. Store failures are returned to the caller.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	if ev.Sender == 0 {
		r.log.WarnContext(ctx, "cannot route event without sender", slog.String("kind", string(ev.Kind)))
		return nil
	}

	menus := menu.New(r.catalog.Translator(ev.Lang))

	lockCtx, release, err := r.fsm.Lock(ctx, ev.Sender)
	if errors.Is(err, state.ErrStateLocked) {
		r.notifier.Send(ctx, ev.Sender, menus.Text("general.busy"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock user %d: %w", ev.Sender, err)
	}
	defer release()
	ctx = lockCtx

	uc, err := r.fsm.Get(ctx, ev.Sender)
	if err != nil {
		return fmt.Errorf("load context of user %d: %w", ev.Sender, err)
	}

	t := &turn{ev: ev, uc: uc, menus: menus}
	nx, err := r.dispatch(ctx, t)
	if err != nil {
		return err
	}

	return r.apply(ctx, ev.Sender, nx)
}

func (r *Router) dispatch(ctx context.Context, t *turn) (next, error) {
	switch t.ev.Kind {
	case KindText:
		return r.handleText(ctx, t)
	case KindAttachment:
		r.reply(ctx, t, t.menus.PhotoConfirm())
		return keep(), nil
	case KindQuickReply, KindPostback:
		return r.handleToken(ctx, t)
	default:
		r.log.InfoContext(ctx, "ignoring event of unknown kind",
			slog.Int64("user_id", t.sender()),
			slog.String("kind", string(t.ev.Kind)),
		)
		return keep(), nil
	}
}

func (r *Router) handleText(ctx context.Context, t *turn) (next, error) {
	if t.ev.ListingID != "" {
		return r.openListing(ctx, t, ListingRef{ID: t.ev.ListingID})
	}
	if ref, ok := ParseListingRef(t.ev.Text); ok {
		return r.openListing(ctx, t, ref)
	}

	if h := r.dispatcher.handler(t.uc.State); h != nil {
		return h(ctx, t)
	}

	r.reply(ctx, t, notify.Text(t.ev.Text))
	return keep(), nil
}

func (r *Router) handleToken(ctx context.Context, t *turn) (next, error) {
	token := t.ev.Payload
	rt, ok := r.tokens[token]
	if !ok {
		r.log.InfoContext(ctx, "unsupported token", slog.Int64("user_id", t.sender()), slog.String("token", token))
		return r.notSupported(ctx, t)
	}

	if rt.needsListing && t.uc.ListingID() == "" {
		r.log.InfoContext(ctx, "token without session", slog.Int64("user_id", t.sender()), slog.String("token", token))
		r.reply(ctx, t, t.menus.Text("general.session_expired"))
		return keep(), nil
	}

	if len(rt.states) > 0 && !slices.Contains(rt.states, t.uc.State) {
		r.log.InfoContext(ctx, "token not valid in state",
			slog.Int64("user_id", t.sender()),
			slog.String("token", token),
			slog.String("state", string(t.uc.State)),
		)
		r.reply(ctx, t, t.menus.Text("general.unavailable"))
		return keep(), nil
	}

	if rt.loadListing || rt.sellerOnly {
		l, err := r.listings.Get(ctx, t.uc.ListingID())
		if errors.Is(err, listing.ErrNotFound) {
			r.reply(ctx, t, t.menus.Text("general.listing_missing"))
			return reset(), nil
		}
		if err != nil {
			return next{}, err
		}
		if rt.sellerOnly && !l.IsSeller(t.sender()) {
			r.reply(ctx, t, t.menus.Text("general.seller_only"))
			return keep(), nil
		}
		t.listing = l
	}

	return rt.handle(ctx, t)
}

func (r *Router) apply(ctx context.Context, userID int64, nx next) error {
	switch nx.action {
	case clearContext:
		if err := r.fsm.Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear context of user %d: %w", userID, err)
		}
	case setContext:
		if err := r.fsm.Set(ctx, userID, nx.data); err != nil {
			return fmt.Errorf("set context of user %d to %s: %w", userID, nx.data.State(), err)
		}
	}
	return nil
}

func (r *Router) reply(ctx context.Context, t *turn, msgs ...notify.Message) {
	r.notifier.Send(ctx, t.sender(), msgs...)
}

// displayName resolves user ids for seller summaries.
func (r *Router) displayName(ctx context.Context) func(int64) string {
	return func(id int64) string {
		return r.dir.DisplayName(ctx, id)
	}
}
