package state

// Payload is the data attached to a state. Each state has exactly one payload type,
// so the state of a context is always derived from its payload.
type Payload interface {
	State() State
	Listing() string
}

// NoneData is the payload of StateNone.
type NoneData struct{}

func (NoneData) State() State    { return StateNone }
func (NoneData) Listing() string { return "" }

// CategorizeData remembers the listing the user opened before saying who they are.
type CategorizeData struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title,omitempty"`
}

func (CategorizeData) State() State      { return StateCategorize }
func (d CategorizeData) Listing() string { return d.ListingID }

type BuyerAddQueueData struct {
	ListingID string `json:"listing_id"`
}

func (BuyerAddQueueData) State() State      { return StateBuyerAddQueue }
func (d BuyerAddQueueData) Listing() string { return d.ListingID }

type BuyerStatusData struct {
	ListingID string `json:"listing_id"`
}

func (BuyerStatusData) State() State      { return StateBuyerStatus }
func (d BuyerStatusData) Listing() string { return d.ListingID }

// FAQSetupData tracks how many FAQ questions the seller has answered.
type FAQSetupData struct {
	ListingID         string `json:"listing_id"`
	QuestionsAnswered int    `json:"questions_answered"`
}

func (FAQSetupData) State() State      { return StateFAQSetup }
func (d FAQSetupData) Listing() string { return d.ListingID }

// SellerData is the seller menu context.
type SellerData struct {
	ListingID string `json:"listing_id"`
}

func (SellerData) State() State      { return StateFAQDone }
func (d SellerData) Listing() string { return d.ListingID }

// OfferData marks a freshly promoted head that has to answer the seller's offer.
type OfferData struct {
	ListingID string `json:"listing_id"`
}

func (OfferData) State() State      { return StateAcceptPrice }
func (d OfferData) Listing() string { return d.ListingID }
