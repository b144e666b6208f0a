package state

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the pending conversational step of a user.
type State string

const (
	// StateNone means no multi-turn flow is in progress.
	StateNone State = "none"
	// StateCategorize waits for the user to say whether they are the buyer or the seller.
	StateCategorize State = "categorize"
	// StateBuyerAddQueue offers a buyer to join the waitlist.
	StateBuyerAddQueue State = "buyer_add_queue"
	// StateBuyerStatus shows a queued buyer their position.
	StateBuyerStatus State = "buyer_status"
	// StateFAQSetup collects the seller's FAQ answers one at a time.
	StateFAQSetup State = "faq_setup"
	// StateFAQDone is the seller menu after the FAQ was answered or skipped.
	StateFAQDone State = "faq_done"
	// StateAcceptPrice asks the head of a waitlist to accept or decline the seller's offer.
	StateAcceptPrice State = "accept_price"
)

// All returns every state in a stable order.
func All() []State {
	return []State{
		StateNone,
		StateCategorize,
		StateBuyerAddQueue,
		StateBuyerStatus,
		StateFAQSetup,
		StateFAQDone,
		StateAcceptPrice,
	}
}

// UserContext is the single pending conversation context of a user.
type UserContext struct {
	UserID    int64
	State     State
	Data      Payload
	UpdatedAt time.Time
}

// None returns the empty context for userID.
func None(userID int64) *UserContext {
	return &UserContext{UserID: userID, State: StateNone, Data: NoneData{}}
}

// ListingID returns the listing the context refers to, if any.
func (c *UserContext) ListingID() string {
	if c == nil || c.Data == nil {
		return ""
	}
	return c.Data.Listing()
}

// IsNone reports whether no flow is pending.
func (c *UserContext) IsNone() bool {
	return c == nil || c.State == StateNone || c.State == ""
}

type envelope struct {
	UserID    int64           `json:"user_id"`
	State     State           `json:"state"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c UserContext) MarshalJSON() ([]byte, error) {
	env := envelope{UserID: c.UserID, State: c.State, UpdatedAt: c.UpdatedAt}
	if c.Data != nil {
		raw, err := json.Marshal(c.Data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func (c *UserContext) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	data, err := decodePayload(env.State, env.Data)
	if err != nil {
		return err
	}

	*c = UserContext{UserID: env.UserID, State: env.State, Data: data, UpdatedAt: env.UpdatedAt}
	return nil
}

func decodePayload(s State, raw json.RawMessage) (Payload, error) {
	switch s {
	case StateNone, "":
		return NoneData{}, nil
	case StateCategorize:
		return decodeAs[CategorizeData](raw)
	case StateBuyerAddQueue:
		return decodeAs[BuyerAddQueueData](raw)
	case StateBuyerStatus:
		return decodeAs[BuyerStatusData](raw)
	case StateFAQSetup:
		return decodeAs[FAQSetupData](raw)
	case StateFAQDone:
		return decodeAs[SellerData](raw)
	case StateAcceptPrice:
		return decodeAs[OfferData](raw)
	default:
		return nil, fmt.Errorf("unknown state %q", s)
	}
}

func decodeAs[T Payload](raw json.RawMessage) (Payload, error) {
	var p T
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
