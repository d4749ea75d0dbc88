// Package mastodon adapts a Mastodon instance, a REST ID-paginated
// backend, to the universal platform contract.
package mastodon

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/platform"
	"github.com/hmdqr/FastSM/internal/usercache"
)

const defaultMaxChars = 500

func init() {
	platform.Register(PlatformName, func(cfg platform.Config) (platform.Account, error) {
		return NewAccount(cfg)
	})
}

// Account implements platform.Account against a Mastodon instance.
// Pagination state lives in the returned object ids, so the adapter
// passes caller-supplied max_id/since_id through without bookkeeping.
type Account struct {
	client   api
	me       *model.User
	cache    *usercache.Cache
	reporter platform.Reporter

	defaultVisibility string
	maxChars          int
}

var _ platform.Account = (*Account)(nil)

// NewAccount resolves the authenticated user and instance limits.
func NewAccount(cfg platform.Config) (*Account, error) {
	client := NewClient(cfg.Server, cfg.AccessToken, cfg.HTTPClient)
	return newAccount(context.Background(), client, cfg.Reporter)
}

func newAccount(ctx context.Context, client api, reporter platform.Reporter) (*Account, error) {
	if reporter == nil {
		reporter = platform.NopReporter{}
	}

	raw, err := client.VerifyCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authenticated user: %w", err)
	}

	a := &Account{
		client:            client,
		me:                accountToUser(raw),
		cache:             usercache.New(),
		reporter:          reporter,
		defaultVisibility: "public",
		maxChars:          defaultMaxChars,
	}
	if raw.Source.Privacy != "" {
		a.defaultVisibility = raw.Source.Privacy
	}

	// Instance limits are best-effort; the default stands on failure.
	if inst, err := client.Instance(ctx); err == nil && inst.Configuration.Statuses.MaxCharacters > 0 {
		a.maxChars = inst.Configuration.Statuses.MaxCharacters
	}

	return a, nil
}

func (a *Account) PlatformName() string { return PlatformName }

func (a *Account) Features() platform.Features {
	return platform.Features{
		Visibility:     true,
		ContentWarning: true,
		QuotePosts:     true,
		Polls:          true,
		Lists:          true,
		DirectMessages: true,
	}
}

func (a *Account) Me() *model.User             { return a.me }
func (a *Account) MaxChars() int               { return a.maxChars }
func (a *Account) UserCache() *usercache.Cache { return a.cache }

func (a *Account) convertStatuses(raw []apiStatus) []*model.Status {
	out := make([]*model.Status, 0, len(raw))
	for i := range raw {
		if st := statusToUniversal(&raw[i]); st != nil {
			out = append(out, st)
			a.cache.AddUsersFromStatus(st)
		}
	}
	return out
}

func (a *Account) convertUsers(raw []apiAccount) []*model.User {
	out := make([]*model.User, 0, len(raw))
	for i := range raw {
		if u := accountToUser(&raw[i]); u != nil {
			out = append(out, u)
			a.cache.AddUser(u)
		}
	}
	return out
}

// ============ Timelines ============

func (a *Account) HomeTimeline(ctx context.Context, page platform.Page) []*model.Status {
	raw, err := a.client.TimelineHome(ctx, page)
	if err != nil {
		a.reporter.Report(err, "home timeline")
		return nil
	}
	return a.convertStatuses(raw)
}

// Mentions returns mention notifications unwrapped into statuses. The
// backend exposes mentions only as notifications; the returned status
// is re-keyed to the notification id so downstream pagination and
// de-duplication track notification identity, which is stable and
// monotonic where a status can trigger several notifications. The true
// status id stays reachable through OriginalID.
func (a *Account) Mentions(ctx context.Context, page platform.Page) []*model.Status {
	raw, err := a.client.Notifications(ctx, true, page)
	if err != nil {
		a.reporter.Report(err, "mentions")
		return nil
	}

	out := make([]*model.Status, 0, len(raw))
	for i := range raw {
		n := &raw[i]
		if n.Status == nil {
			continue
		}
		st := statusToUniversal(n.Status)
		if st == nil {
			continue
		}
		st.OriginalID = st.ID
		st.ID = n.ID
		out = append(out, st)
		a.cache.AddUsersFromStatus(st)
	}
	return out
}

func (a *Account) Notifications(ctx context.Context, page platform.Page) []*model.Notification {
	raw, err := a.client.Notifications(ctx, false, page)
	if err != nil {
		a.reporter.Report(err, "notifications")
		return nil
	}
	out := make([]*model.Notification, 0, len(raw))
	for i := range raw {
		if n := notificationToUniversal(&raw[i]); n != nil {
			out = append(out, n)
			a.cache.AddUsersFromNotification(n)
		}
	}
	return out
}

func (a *Account) Conversations(ctx context.Context, page platform.Page) []*model.Conversation {
	raw, err := a.client.Conversations(ctx, page)
	if err != nil {
		a.reporter.Report(err, "conversations")
		return nil
	}
	out := make([]*model.Conversation, 0, len(raw))
	for i := range raw {
		if c := conversationToUniversal(&raw[i]); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (a *Account) Favourites(ctx context.Context, page platform.Page) []*model.Status {
	raw, err := a.client.Favourites(ctx, page)
	if err != nil {
		a.reporter.Report(err, "favourites")
		return nil
	}
	return a.convertStatuses(raw)
}

func (a *Account) UserStatuses(ctx context.Context, userID string, page platform.Page) []*model.Status {
	raw, err := a.client.AccountStatuses(ctx, userID, page)
	if err != nil {
		a.reporter.Report(err, "user statuses")
		return nil
	}
	return a.convertStatuses(raw)
}

func (a *Account) ListTimeline(ctx context.Context, listID string, page platform.Page) []*model.Status {
	raw, err := a.client.TimelineList(ctx, listID, page)
	if err != nil {
		a.reporter.Report(err, "list timeline")
		return nil
	}
	return a.convertStatuses(raw)
}

// LocalTimeline returns posts from users on this instance.
func (a *Account) LocalTimeline(ctx context.Context, page platform.Page) []*model.Status {
	raw, err := a.client.TimelinePublic(ctx, true, page)
	if err != nil {
		a.reporter.Report(err, "local timeline")
		return nil
	}
	return a.convertStatuses(raw)
}

// FederatedTimeline returns posts from all known instances.
func (a *Account) FederatedTimeline(ctx context.Context, page platform.Page) []*model.Status {
	raw, err := a.client.TimelinePublic(ctx, false, page)
	if err != nil {
		a.reporter.Report(err, "federated timeline")
		return nil
	}
	return a.convertStatuses(raw)
}

func (a *Account) SearchStatuses(ctx context.Context, query string, page platform.Page) []*model.Status {
	res, err := a.client.Search(ctx, query, "statuses", page.Limit)
	if err != nil {
		a.reporter.Report(err, "search")
		return nil
	}
	return a.convertStatuses(res.Statuses)
}

func (a *Account) Status(ctx context.Context, id string) *model.Status {
	raw, err := a.client.GetStatus(ctx, id)
	if err != nil {
		a.reporter.Report(err, "get status")
		return nil
	}
	return statusToUniversal(raw)
}

func (a *Account) StatusContext(ctx context.Context, id string) *model.Context {
	raw, err := a.client.StatusContext(ctx, id)
	if err != nil {
		a.reporter.Report(err, "thread context")
		return &model.Context{}
	}
	return &model.Context{
		Ancestors:   a.convertStatuses(raw.Ancestors),
		Descendants: a.convertStatuses(raw.Descendants),
	}
}

// ============ Actions ============

func (a *Account) Post(ctx context.Context, req platform.PostRequest) *model.Status {
	form := url.Values{}
	form.Set("status", req.Text)
	visibility := req.Visibility
	if visibility == "" {
		visibility = a.defaultVisibility
	}
	form.Set("visibility", visibility)
	if req.SpoilerText != "" {
		form.Set("spoiler_text", req.SpoilerText)
	}
	if req.InReplyToID != "" {
		form.Set("in_reply_to_id", req.InReplyToID)
	}

	raw, err := a.client.PostStatus(ctx, form)
	if err != nil {
		a.reporter.Report(err, "post")
		return nil
	}
	return statusToUniversal(raw)
}

// Quote posts a status quoting another. Native quoting is tried first;
// instances without it get the text with the original URL appended.
func (a *Account) Quote(ctx context.Context, quoted *model.Status, text, visibility string) *model.Status {
	if quoted == nil {
		return nil
	}
	if visibility == "" {
		visibility = a.defaultVisibility
	}

	form := url.Values{}
	form.Set("status", text)
	form.Set("visibility", visibility)
	form.Set("quote_id", quoted.ActionableID())
	if raw, err := a.client.PostStatus(ctx, form); err == nil {
		return statusToUniversal(raw)
	}

	fallback := url.Values{}
	fallback.Set("status", fmt.Sprintf("%s\n\n%s", text, quoted.URL))
	fallback.Set("visibility", visibility)
	raw, err := a.client.PostStatus(ctx, fallback)
	if err != nil {
		a.reporter.Report(err, "quote")
		return nil
	}
	return statusToUniversal(raw)
}

func (a *Account) statusAction(ctx context.Context, id, action, op string) bool {
	if err := a.client.StatusAction(ctx, id, action); err != nil {
		a.reporter.Report(err, op)
		return false
	}
	return true
}

func (a *Account) Boost(ctx context.Context, id string) bool {
	return a.statusAction(ctx, id, "reblog", "boost")
}

func (a *Account) Unboost(ctx context.Context, id string) bool {
	return a.statusAction(ctx, id, "unreblog", "unboost")
}

func (a *Account) Favourite(ctx context.Context, id string) bool {
	return a.statusAction(ctx, id, "favourite", "favourite")
}

func (a *Account) Unfavourite(ctx context.Context, id string) bool {
	return a.statusAction(ctx, id, "unfavourite", "unfavourite")
}

func (a *Account) DeleteStatus(ctx context.Context, id string) bool {
	if err := a.client.DeleteStatus(ctx, id); err != nil {
		a.reporter.Report(err, "delete")
		return false
	}
	return true
}

// ============ Social graph ============

func (a *Account) User(ctx context.Context, id string) *model.User {
	raw, err := a.client.GetAccount(ctx, id)
	if err != nil {
		a.reporter.Report(err, "get user")
		return nil
	}
	u := accountToUser(raw)
	a.cache.AddUser(u)
	return u
}

func (a *Account) SearchUsers(ctx context.Context, query string, limit int) []*model.User {
	raw, err := a.client.AccountSearch(ctx, query, limit)
	if err != nil {
		a.reporter.Report(err, "search users")
		return nil
	}
	return a.convertUsers(raw)
}

// LookupUserByName resolves a handle through account search; suitable
// as the user cache's recovery callback.
func (a *Account) LookupUserByName(ctx context.Context, name string) *model.User {
	users := a.SearchUsers(ctx, name, 1)
	if len(users) == 0 {
		return nil
	}
	return users[0]
}

func (a *Account) accountAction(ctx context.Context, id, action string) bool {
	if err := a.client.AccountAction(ctx, id, action); err != nil {
		a.reporter.Report(err, action)
		return false
	}
	return true
}

func (a *Account) Follow(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "follow")
}

func (a *Account) Unfollow(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "unfollow")
}

func (a *Account) Block(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "block")
}

func (a *Account) Unblock(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "unblock")
}

func (a *Account) Mute(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "mute")
}

func (a *Account) Unmute(ctx context.Context, userID string) bool {
	return a.accountAction(ctx, userID, "unmute")
}

func (a *Account) Followers(ctx context.Context, userID string, limit int) []*model.User {
	raw, err := a.client.AccountFollowers(ctx, userID, limit)
	if err != nil {
		a.reporter.Report(err, "followers")
		return nil
	}
	return a.convertUsers(raw)
}

func (a *Account) Following(ctx context.Context, userID string, limit int) []*model.User {
	raw, err := a.client.AccountFollowing(ctx, userID, limit)
	if err != nil {
		a.reporter.Report(err, "following")
		return nil
	}
	return a.convertUsers(raw)
}

// ============ Lists ============

func (a *Account) Lists(ctx context.Context) []*model.List {
	raw, err := a.client.Lists(ctx)
	if err != nil {
		a.reporter.Report(err, "lists")
		return nil
	}
	out := make([]*model.List, 0, len(raw))
	for _, l := range raw {
		out = append(out, &model.List{ID: l.ID, Title: l.Title})
	}
	return out
}

func (a *Account) ListMembers(ctx context.Context, listID string) []*model.User {
	raw, err := a.client.ListAccounts(ctx, listID)
	if err != nil {
		a.reporter.Report(err, "list members")
		return nil
	}
	return a.convertUsers(raw)
}

func (a *Account) AddToList(ctx context.Context, listID, userID string) bool {
	if err := a.client.ListAccountsAdd(ctx, listID, userID); err != nil {
		a.reporter.Report(err, "add to list")
		return false
	}
	return true
}

func (a *Account) RemoveFromList(ctx context.Context, listID, userID string) bool {
	if err := a.client.ListAccountsRemove(ctx, listID, userID); err != nil {
		a.reporter.Report(err, "remove from list")
		return false
	}
	return true
}
