package bot

// Command constants for Telegram bot commands.
const (
	CommandStart     = "/start"
	CommandCancel    = "/cancel"
	CommandListings  = "/listings"
	CommandInterests = "/interests"
	CommandHelp      = "/help"
)
