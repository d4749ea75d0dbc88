// Package model defines the platform-neutral record types shared by every
// backend adapter. Instances are value snapshots produced by an adapter's
// conversion step; apart from the locally-tracked Favourited/Boosted flags
// they are treated as immutable after construction.
package model

import "time"

// Status is the universal representation of a post across platforms.
//
// A Status carrying a non-nil Reblog is synthetic: it represents the
// boost/repost action itself and has no platform identity of its own.
// Engagement operations must target ActionableID, never ID, in that case.
type Status struct {
	ID string `json:"id"`

	// OriginalID holds the underlying status id when a timeline path has
	// re-keyed this status by notification identity (the mentions
	// timeline). Empty everywhere else.
	OriginalID string `json:"original_id,omitempty"`

	Account   *User     `json:"account"`
	Content   string    `json:"content"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`

	FavouritesCount int `json:"favourites_count"`
	BoostsCount     int `json:"boosts_count"`
	RepliesCount    int `json:"replies_count"`

	InReplyToID string    `json:"in_reply_to_id,omitempty"`
	Reblog      *Status   `json:"reblog,omitempty"`
	Quote       *Status   `json:"quote,omitempty"`
	Media       []Media   `json:"media_attachments,omitempty"`
	Mentions    []Mention `json:"mentions,omitempty"`

	URL         string   `json:"url,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	SpoilerText string   `json:"spoiler_text,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Poll        *Poll    `json:"poll,omitempty"`

	// Locally-tracked action state. Reflects confirmed local actions
	// only; the backend remains the source of truth.
	Favourited bool `json:"favourited"`
	Boosted    bool `json:"boosted"`

	Platform string `json:"platform"`

	// PlatformData retains the original backend object for
	// platform-specific operations not representable universally.
	PlatformData any `json:"-"`
}

// ItemID implements Item.
func (s *Status) ItemID() string { return s.ID }

// IsReblog reports whether this status is a synthetic boost wrapper.
func (s *Status) IsReblog() bool { return s.Reblog != nil }

// ActionableID returns the id that favourite/boost/reply/delete calls
// must use. For a re-keyed mention it is the original status id; for a
// synthetic boost wrapper it is the boosted status; otherwise ID.
func (s *Status) ActionableID() string {
	if s.OriginalID != "" {
		return s.OriginalID
	}
	if s.Reblog != nil {
		return s.Reblog.ActionableID()
	}
	return s.ID
}

// MentionsUser reports whether the status mentions the given user,
// matched by mention id or by fully qualified handle.
func (s *Status) MentionsUser(u *User) bool {
	if u == nil {
		return false
	}
	for _, m := range s.Mentions {
		if m.ID != "" && m.ID == u.ID {
			return true
		}
		if m.Acct != "" && m.Acct == u.Acct {
			return true
		}
	}
	return false
}

// Media is a single attachment on a status.
type Media struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // image, video, audio, gifv, unknown
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Mention is a lightweight reference to a mentioned user. It is not an
// owning relationship to a full user record.
type Mention struct {
	ID       string `json:"id"`
	Acct     string `json:"acct"`
	Username string `json:"username"`
	URL      string `json:"url,omitempty"`
}

// Poll is an attached poll, on platforms that have them.
type Poll struct {
	ID         string       `json:"id"`
	ExpiresAt  time.Time    `json:"expires_at,omitempty"`
	Expired    bool         `json:"expired"`
	Multiple   bool         `json:"multiple"`
	VotesCount int          `json:"votes_count"`
	Options    []PollOption `json:"options"`
}

// PollOption is one choice in a poll.
type PollOption struct {
	Title      string `json:"title"`
	VotesCount int    `json:"votes_count"`
}

// Context is the thread surrounding a status. Ancestors are ordered
// oldest first; descendants are the direct replies only.
type Context struct {
	Ancestors   []*Status `json:"ancestors"`
	Descendants []*Status `json:"descendants"`
}

// List is a user-curated list of accounts.
type List struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Feed is a server-side curated timeline, like a Bluesky feed
// generator. ID is whatever the platform uses to request the feed's
// timeline.
type Feed struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Creator     string `json:"creator,omitempty"`
}

// Conversation is a direct-message conversation.
type Conversation struct {
	ID         string  `json:"id"`
	Accounts   []*User `json:"accounts"`
	Unread     bool    `json:"unread"`
	LastStatus *Status `json:"last_status,omitempty"`
}

// ItemID implements Item.
func (c *Conversation) ItemID() string { return c.ID }

// Item is anything a timeline buffer can hold.
type Item interface {
	ItemID() string
}
