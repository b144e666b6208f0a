// Package conversation turns inbound user events into waitlist operations, replies
// and exactly one conversation context write per event.
package conversation

import (
	"context"

	"github.com/Proton-105/queue-bot/internal/domain"
)

// Kind is the type of an inbound event.
type Kind string

const (
	KindText       Kind = "text"
	KindAttachment Kind = "attachment"
	KindQuickReply Kind = "quick_reply"
	KindPostback   Kind = "postback"
)

// Event is one inbound message from a user.
type Event struct {
	Kind   Kind
	Sender int64
	// Text is the message text for KindText.
	Text string
	// Payload is the token of a quick reply or postback.
	Payload string
	// ListingID is set when the platform already resolved a listing, e.g. a deep link.
	ListingID string
	// Lang is the user's language code, used to pick the copy catalog.
	Lang string
}

// Directory records which listings a user sells or watches.
type Directory interface {
	Add(ctx context.Context, userID int64, listingID string, role domain.Role) error
	Remove(ctx context.Context, userID int64, listingID string, role domain.Role) error
	ForgetListing(ctx context.Context, listingID string) error
	Listings(ctx context.Context, userID int64, role domain.Role) ([]string, error)
	DisplayName(ctx context.Context, userID int64) string
}
