package domain

import "time"

// User is a Telegram user known to the bot. ID is the Telegram user id.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the best human readable name for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	default:
		return u.FirstName
	}
}

// Role describes how a user relates to a listing.
type Role string

const (
	RoleSelling  Role = "selling"
	RoleWatching Role = "watching"
)
