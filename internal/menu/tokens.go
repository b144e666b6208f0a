// Package menu renders the bot's prompts and option menus from the copy catalog.
package menu

// Quick reply and postback tokens.
const (
	TokenGetStarted         = "get-started"
	TokenBuyer              = "buyer"
	TokenSeller             = "seller"
	TokenSetupQueue         = "setup-queue"
	TokenAddQueue           = "add-queue"
	TokenSkipQueue          = "skip-queue"
	TokenLeaveQueue         = "leave-queue"
	TokenShowFAQ            = "show-faq"
	TokenSetupFAQ           = "setup-faq"
	TokenSkipFAQ            = "skip-faq"
	TokenDisplayQueue       = "display-queue"
	TokenRemoveListing      = "remove-listing"
	TokenShowListings       = "show-listings"
	TokenShowInterests      = "show-interests"
	TokenAcceptSellerOffer  = "accept-seller-offer"
	TokenDeclineSellerOffer = "decline-seller-offer"
	TokenQuit               = "quit"
	TokenConfirmPhoto       = "confirm-photo"
	TokenRejectPhoto        = "reject-photo"
)
