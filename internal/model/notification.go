package model

import "time"

// Notification types. Adapters map platform-specific reasons onto this
// closed set; unrecognized reasons pass through verbatim.
const (
	NotificationFollow    = "follow"
	NotificationFavourite = "favourite"
	NotificationReblog    = "reblog"
	NotificationMention   = "mention"
	NotificationPoll      = "poll"
	NotificationUpdate    = "update"
)

// Notification is the universal representation of a notification.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Account   *User     `json:"account"` // who triggered it
	CreatedAt time.Time `json:"created_at"`
	Status    *Status   `json:"status,omitempty"` // associated status, if any

	Platform     string `json:"platform"`
	PlatformData any    `json:"-"`
}

// ItemID implements Item.
func (n *Notification) ItemID() string { return n.ID }
