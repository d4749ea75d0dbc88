// Package platform defines the contract every backend adapter
// implements, plus the shared collaborators (error reporter, circuit
// breaker, registry) the adapters depend on.
package platform

import (
	"context"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/usercache"
)

// Features are the static per-platform capability flags. Callers query
// them before attempting a capability-gated action; calling an
// unsupported capability is not an error; it returns the canonical
// empty/false result.
type Features struct {
	Visibility     bool
	ContentWarning bool
	QuotePosts     bool
	Polls          bool
	Lists          bool
	DirectMessages bool
}

// Page carries pagination parameters for timeline calls.
//
// For ID-paginated backends MaxID/SinceID/MinID pass straight through.
// For cursor-paginated backends, a request with MaxID set and no Cursor
// is a continuation: the adapter substitutes its stored cursor for that
// timeline key. A request with none of these is a fresh page and
// ignores stored cursors.
type Page struct {
	Limit   int
	MaxID   string
	SinceID string
	MinID   string
	Cursor  string
}

// Continuation reports whether the caller asked for the next older page
// without supplying an explicit cursor.
func (p Page) Continuation() bool {
	return p.MaxID != "" && p.Cursor == ""
}

// PostRequest describes a new status to create.
type PostRequest struct {
	Text        string
	InReplyToID string
	Visibility  string   // ignored on platforms without the concept
	SpoilerText string   // ignored on platforms without the concept
	Labels      []string // content labels, on platforms that use them
}

// Account is the full operation surface a backend adapter provides.
//
// Every method is a blocking, synchronous round-trip meant to be called
// from a worker context. Transport failures never propagate: the
// adapter reports them with an operation label and returns the empty,
// nil or false value for the method's return type, so callers can treat
// every call as always-succeeding-with-possibly-empty-result.
//
// An Account instance's cursor state and user cache are owned by that
// account; concurrent continuation requests for the same timeline key
// must be serialized by the caller.
type Account interface {
	PlatformName() string
	Features() Features
	Me() *model.User
	MaxChars() int
	UserCache() *usercache.Cache

	// Timelines.
	HomeTimeline(ctx context.Context, page Page) []*model.Status
	Mentions(ctx context.Context, page Page) []*model.Status
	Notifications(ctx context.Context, page Page) []*model.Notification
	Conversations(ctx context.Context, page Page) []*model.Conversation
	Favourites(ctx context.Context, page Page) []*model.Status
	UserStatuses(ctx context.Context, userID string, page Page) []*model.Status
	ListTimeline(ctx context.Context, listID string, page Page) []*model.Status
	SearchStatuses(ctx context.Context, query string, page Page) []*model.Status
	Status(ctx context.Context, id string) *model.Status
	StatusContext(ctx context.Context, id string) *model.Context

	// Actions.
	Post(ctx context.Context, req PostRequest) *model.Status
	Boost(ctx context.Context, id string) bool
	Unboost(ctx context.Context, id string) bool
	Favourite(ctx context.Context, id string) bool
	Unfavourite(ctx context.Context, id string) bool
	DeleteStatus(ctx context.Context, id string) bool

	// Social graph.
	User(ctx context.Context, id string) *model.User
	SearchUsers(ctx context.Context, query string, limit int) []*model.User
	Follow(ctx context.Context, userID string) bool
	Unfollow(ctx context.Context, userID string) bool
	Block(ctx context.Context, userID string) bool
	Unblock(ctx context.Context, userID string) bool
	Mute(ctx context.Context, userID string) bool
	Unmute(ctx context.Context, userID string) bool
	Followers(ctx context.Context, userID string, limit int) []*model.User
	Following(ctx context.Context, userID string, limit int) []*model.User

	// Lists. Platforms without lists return empty/false.
	Lists(ctx context.Context) []*model.List
	ListMembers(ctx context.Context, listID string) []*model.User
	AddToList(ctx context.Context, listID, userID string) bool
	RemoveFromList(ctx context.Context, listID, userID string) bool
}
