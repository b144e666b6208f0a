// Package domain holds the core entities shared by the bot components.
package domain

import (
	"fmt"
	"slices"
	"time"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FAQEntry is a single seller supplied question/answer pair.
type FAQEntry struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// Listing is an item offered by a seller, optionally with a waitlist of buyers.
type Listing struct {
	ID        string     `json:"id" validate:"required,max=64"`
	Title     string     `json:"title"`
	Seller    int64      `json:"seller" validate:"required"`
	HasQueue  bool       `json:"has_queue"`
	Queue     []int64    `json:"queue"`
	FAQ       []FAQEntry `json:"faq" validate:"dive"`
	Price     int64      `json:"price" validate:"gte=0"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate checks field constraints and the queue invariants.
func (l *Listing) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid listing: %w", err)
	}
	if slices.Contains(l.Queue, l.Seller) {
		return fmt.Errorf("invalid listing %s: seller %d is queued", l.ID, l.Seller)
	}

	seen := make(map[int64]struct{}, len(l.Queue))
	for _, id := range l.Queue {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("invalid listing %s: user %d queued twice", l.ID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// DisplayTitle falls back to the id when the listing has no title.
func (l *Listing) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return l.ID
}

// Position returns the zero-based queue index of userID, or -1.
func (l *Listing) Position(userID int64) int {
	return slices.Index(l.Queue, userID)
}

// Head returns the first queued user, or 0 when the queue is empty.
func (l *Listing) Head() int64 {
	if len(l.Queue) == 0 {
		return 0
	}
	return l.Queue[0]
}

// IsSeller reports whether userID owns the listing.
func (l *Listing) IsSeller(userID int64) bool {
	return l.Seller == userID
}
