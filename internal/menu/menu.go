package menu

import (
	"strconv"
	"strings"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/faq"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/notify"
)

// Builder renders messages in one language.
type Builder struct {
	t i18n.Translator
}

func New(t i18n.Translator) *Builder {
	return &Builder{t: t}
}

// T exposes the underlying translator for one-off texts.
func (b *Builder) T() i18n.Translator {
	return b.t
}

func (b *Builder) reply(key, token string) notify.QuickReply {
	return notify.QuickReply{Title: b.t.T("buttons." + key), Payload: token}
}

func (b *Builder) Text(key string, pairs ...any) notify.Message {
	return notify.Text(b.t.F(key, pairs...))
}

func (b *Builder) Welcome() []notify.Message {
	return []notify.Message{
		b.Text("general.welcome"),
		notify.QuickReplies(b.t.T("general.next"),
			b.reply("show_listings", TokenShowListings),
			b.reply("show_interests", TokenShowInterests),
		),
	}
}

func (b *Builder) Categorize(title string) notify.Message {
	return notify.QuickReplies(b.t.F("categorize.prompt", "title", title),
		b.reply("buyer", TokenBuyer),
		b.reply("seller", TokenSeller),
	)
}

func (b *Builder) SetupQueuePrompt(title string) notify.Message {
	return notify.QuickReplies(b.t.F("seller.setup_prompt", "title", title),
		b.reply("setup_queue", TokenSetupQueue),
		b.reply("quit", TokenQuit),
	)
}

func (b *Builder) FAQPrompt(title string) notify.Message {
	return notify.QuickReplies(b.t.F("seller.queue_created", "title", title),
		b.reply("setup_faq", TokenSetupFAQ),
		b.reply("skip_faq", TokenSkipFAQ),
	)
}

func (b *Builder) SellerMenu(title string) notify.Message {
	return notify.QuickReplies(b.t.F("seller.menu", "title", title),
		b.reply("display_queue", TokenDisplayQueue),
		b.reply("setup_faq", TokenSetupFAQ),
		b.reply("remove_listing", TokenRemoveListing),
		b.reply("quit", TokenQuit),
	)
}

func (b *Builder) JoinMenu() notify.Message {
	return notify.QuickReplies(b.t.T("buyer.join_prompt"),
		b.reply("add_queue", TokenAddQueue),
		b.reply("show_faq", TokenShowFAQ),
		b.reply("skip_queue", TokenSkipQueue),
	)
}

func (b *Builder) StatusMenu() notify.Message {
	return notify.QuickReplies(b.t.T("buyer.status_prompt"),
		b.reply("show_faq", TokenShowFAQ),
		b.reply("leave_queue", TokenLeaveQueue),
		b.reply("quit", TokenQuit),
	)
}

func (b *Builder) NextActionMenu() notify.Message {
	return notify.QuickReplies(b.t.T("general.next"),
		b.reply("show_faq", TokenShowFAQ),
		b.reply("quit", TokenQuit),
	)
}

// OfferQuestion asks the head whether the listing price is acceptable.
func (b *Builder) OfferQuestion(l *domain.Listing) notify.Message {
	return notify.QuickReplies(b.t.F("offer.question", "price", l.Price),
		b.reply("accept_offer", TokenAcceptSellerOffer),
		b.reply("decline_offer", TokenDeclineSellerOffer),
	)
}

// Promoted is sent to a user who just became head of a waitlist.
func (b *Builder) Promoted(l *domain.Listing) []notify.Message {
	return []notify.Message{
		b.Text("offer.promoted", "title", l.DisplayTitle()),
		b.OfferQuestion(l),
	}
}

func (b *Builder) PhotoConfirm() notify.Message {
	return notify.TemplateMessage(notify.Template{
		Title:    b.t.T("general.photo_prompt"),
		Subtitle: b.t.T("general.photo_subtitle"),
		Buttons: []notify.Button{
			{Title: b.t.T("buttons.confirm_photo"), Payload: TokenConfirmPhoto},
			{Title: b.t.T("buttons.reject_photo"), Payload: TokenRejectPhoto},
		},
	})
}

// QueueStatus describes the queue as seen by userID, who may or may not be queued.
func (b *Builder) QueueStatus(l *domain.Listing, userID int64) string {
	title := l.DisplayTitle()
	pos := l.Position(userID)
	switch {
	case pos == 0:
		return b.t.F("buyer.position_first", "title", title)
	case pos > 0:
		return b.t.F("buyer.position", "title", title, "position", pos+1)
	case len(l.Queue) == 0:
		return b.t.F("buyer.queue_empty", "title", title)
	default:
		return b.t.F("buyer.queue_length", "title", title, "count", len(l.Queue))
	}
}

// SellerSummary lists the queue for the seller. name resolves a user id to a display name.
func (b *Builder) SellerSummary(l *domain.Listing, name func(int64) string) string {
	title := l.DisplayTitle()
	if len(l.Queue) == 0 {
		return b.t.F("seller.queue_empty", "title", title)
	}

	lines := make([]string, 0, len(l.Queue)+1)
	lines = append(lines, b.t.F("seller.queue_summary", "title", title, "count", len(l.Queue)))
	for i, id := range l.Queue {
		display := strconv.FormatInt(id, 10)
		if name != nil {
			if n := name(id); n != "" {
				display = n
			}
		}
		lines = append(lines, b.t.F("seller.queue_line", "position", i+1, "name", display))
	}
	return strings.Join(lines, "\n")
}

// FAQ renders the listing FAQ or the "no FAQ" notice.
func (b *Builder) FAQ(l *domain.Listing) string {
	if len(l.FAQ) == 0 {
		return b.t.T("faq.none")
	}
	return faq.Format(l.FAQ, func(question, answer string) string {
		return b.t.F("faq.entry", "question", question, "answer", answer)
	})
}
