package model

import "time"

// User is the universal representation of an account across platforms.
// Identity is the (ID, Platform) pair: ID is the platform-durable key
// (a DID or numeric account id) and Acct alone is not reliable because
// handles can collide across platform/instance boundaries.
type User struct {
	ID          string `json:"id"`
	Acct        string `json:"acct"`     // fully qualified handle
	Username    string `json:"username"` // local part only
	DisplayName string `json:"display_name"`
	Note        string `json:"note,omitempty"` // bio, may contain HTML

	Avatar string `json:"avatar,omitempty"`
	Header string `json:"header,omitempty"`

	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	StatusesCount  int `json:"statuses_count"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	URL       string    `json:"url,omitempty"`

	Bot    bool `json:"bot"`
	Locked bool `json:"locked"`

	Platform     string `json:"platform"`
	PlatformData any    `json:"-"`
}

// UserKey identifies a user across the whole application.
type UserKey struct {
	ID       string
	Platform string
}

// Key returns the identity key for this user.
func (u *User) Key() UserKey { return UserKey{ID: u.ID, Platform: u.Platform} }

// Same reports whether two users are the same identity. Both the
// durable id and the owning platform must match.
func (u *User) Same(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.ID == other.ID && u.Platform == other.Platform
}
