// Package bluesky adapts a Bluesky (AT-Protocol) backend, an XRPC
// cursor-paginated backend, to the universal platform contract.
package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rivo/uniseg"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/platform"
	"github.com/hmdqr/FastSM/internal/usercache"
)

const (
	// maxPostGraphemes is the protocol post length limit, counted in
	// grapheme clusters rather than bytes or runes.
	maxPostGraphemes = 300

	// refCacheSize bounds the uri -> cid strong-ref cache.
	refCacheSize = 1024
)

// ErrMissingIdentifier is returned when the account config has no DID
// or handle to resolve the authenticated user with.
var ErrMissingIdentifier = errors.New("bluesky: identifier (DID or handle) required")

func init() {
	platform.Register(PlatformName, func(cfg platform.Config) (platform.Account, error) {
		return NewAccount(cfg)
	})
}

// Account implements platform.Account against a Bluesky AppView.
// Pagination is cursor-based and the cursors are opaque, so the
// account keeps a per-timeline cursor store and substitutes the stored
// cursor on continuation requests. Engagement actions are repo record
// writes and need a post's uri+cid strong ref; refs seen during
// conversion are remembered so most actions avoid a refetch.
type Account struct {
	client   api
	me       *model.User
	cache    *usercache.Cache
	reporter platform.Reporter

	cursors *cursorStore
	refs    *lru.Cache[string, string] // post uri -> cid
}

var _ platform.Account = (*Account)(nil)

// NewAccount resolves the authenticated user's profile.
func NewAccount(cfg platform.Config) (*Account, error) {
	client := NewClient(cfg.Server, cfg.Identifier, cfg.AccessToken, cfg.HTTPClient)
	return newAccount(context.Background(), client, cfg.Identifier, cfg.Reporter)
}

func newAccount(ctx context.Context, client api, identifier string, reporter platform.Reporter) (*Account, error) {
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}
	if reporter == nil {
		reporter = platform.NopReporter{}
	}

	profile, err := client.Profile(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authenticated user: %w", err)
	}

	refs, err := lru.New[string, string](refCacheSize)
	if err != nil {
		return nil, err
	}
	return &Account{
		client:   client,
		me:       profileToUser(profile),
		cache:    usercache.New(),
		reporter: reporter,
		cursors:  newCursorStore(),
		refs:     refs,
	}, nil
}

func (a *Account) PlatformName() string { return PlatformName }

func (a *Account) Features() platform.Features {
	return platform.Features{QuotePosts: true}
}

func (a *Account) Me() *model.User             { return a.me }
func (a *Account) MaxChars() int               { return maxPostGraphemes }
func (a *Account) UserCache() *usercache.Cache { return a.cache }

// fetchCursor picks the cursor for a timeline call: an explicit cursor
// wins, a continuation request substitutes the stored cursor, and a
// fresh request starts from the top.
func (a *Account) fetchCursor(key string, page platform.Page) string {
	if page.Cursor != "" {
		return page.Cursor
	}
	if page.Continuation() {
		return a.cursors.Get(key)
	}
	return ""
}

func (a *Account) rememberRef(p *postView) {
	if p != nil && p.URI != "" && p.CID != "" {
		a.refs.Add(p.URI, p.CID)
	}
}

// strongRef resolves a post's uri+cid pair, from the ref cache when
// possible and by hydrating the post otherwise.
func (a *Account) strongRef(ctx context.Context, uri string) (strongRef, error) {
	if cid, ok := a.refs.Get(uri); ok {
		return strongRef{URI: uri, CID: cid}, nil
	}
	resp, err := a.client.Posts(ctx, []string{uri})
	if err != nil {
		return strongRef{}, err
	}
	if len(resp.Posts) == 0 {
		return strongRef{}, fmt.Errorf("post not found: %s", uri)
	}
	p := &resp.Posts[0]
	a.rememberRef(p)
	return strongRef{URI: p.URI, CID: p.CID}, nil
}

func (a *Account) convertFeed(items []feedViewPost) []*model.Status {
	out := make([]*model.Status, 0, len(items))
	for i := range items {
		item := &items[i]
		if st := feedItemToStatus(item); st != nil {
			out = append(out, st)
			a.cache.AddUsersFromStatus(st)
			a.rememberRef(item.Post)
		}
	}
	return out
}

func (a *Account) convertPosts(posts []postView) []*model.Status {
	out := make([]*model.Status, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if st := postViewToStatus(p); st != nil {
			out = append(out, st)
			a.cache.AddUsersFromStatus(st)
			a.rememberRef(p)
		}
	}
	return out
}

func (a *Account) convertProfiles(profiles []profileView) []*model.User {
	out := make([]*model.User, 0, len(profiles))
	for i := range profiles {
		if u := profileToUser(&profiles[i]); u != nil {
			out = append(out, u)
			a.cache.AddUser(u)
		}
	}
	return out
}

// resolveDID turns a handle into a DID; DIDs pass through untouched.
func (a *Account) resolveDID(ctx context.Context, actor string) (string, error) {
	if strings.HasPrefix(actor, "did:") {
		return actor, nil
	}
	profile, err := a.client.Profile(ctx, actor)
	if err != nil {
		return "", err
	}
	return profile.DID, nil
}

// ============ Timelines ============

func (a *Account) HomeTimeline(ctx context.Context, page platform.Page) []*model.Status {
	resp, err := a.client.Timeline(ctx, page.Limit, a.fetchCursor(cursorHome, page))
	if err != nil {
		a.reporter.Report(err, "home timeline")
		return nil
	}
	a.cursors.Set(cursorHome, resp.Cursor)
	return a.convertFeed(resp.Feed)
}

// Mentions returns mention, reply and quote notifications unwrapped
// into statuses. The triggering posts are hydrated in bulk; when a
// post cannot be hydrated the notification's embedded record stands in
// so the mention still renders. Statuses are re-keyed to the
// notification id, with the true post id kept in OriginalID.
func (a *Account) Mentions(ctx context.Context, page platform.Page) []*model.Status {
	resp, err := a.client.ListNotifications(ctx, page.Limit, a.fetchCursor(cursorMentions, page))
	if err != nil {
		a.reporter.Report(err, "mentions")
		return nil
	}
	a.cursors.Set(cursorMentions, resp.Cursor)

	var uris []string
	for i := range resp.Notifications {
		if notificationReason(resp.Notifications[i].Reason) == model.NotificationMention {
			uris = append(uris, resp.Notifications[i].URI)
		}
	}
	views := a.hydratePosts(ctx, uris)

	out := make([]*model.Status, 0, len(uris))
	for i := range resp.Notifications {
		n := &resp.Notifications[i]
		if notificationReason(n.Reason) != model.NotificationMention {
			continue
		}
		var st *model.Status
		if pv := views[n.URI]; pv != nil {
			st = postViewToStatus(pv)
		} else if un := notificationToUniversal(n); un != nil {
			st = un.Status
		}
		if st == nil {
			continue
		}
		st.OriginalID = st.ID
		st.ID = n.URI
		out = append(out, st)
		a.cache.AddUsersFromStatus(st)
	}
	return out
}

// hydratePosts fetches full post views for the given uris, chunked to
// the getPosts request limit. Hydration is best-effort: a failed chunk
// is reported and skipped.
func (a *Account) hydratePosts(ctx context.Context, uris []string) map[string]*postView {
	views := make(map[string]*postView, len(uris))
	for start := 0; start < len(uris); start += getPostsChunk {
		end := min(start+getPostsChunk, len(uris))
		resp, err := a.client.Posts(ctx, uris[start:end])
		if err != nil {
			a.reporter.Report(err, "hydrate posts")
			continue
		}
		for i := range resp.Posts {
			p := &resp.Posts[i]
			views[p.URI] = p
			a.rememberRef(p)
		}
	}
	return views
}

func (a *Account) Notifications(ctx context.Context, page platform.Page) []*model.Notification {
	resp, err := a.client.ListNotifications(ctx, page.Limit, a.fetchCursor(cursorNotifications, page))
	if err != nil {
		a.reporter.Report(err, "notifications")
		return nil
	}
	a.cursors.Set(cursorNotifications, resp.Cursor)

	out := make([]*model.Notification, 0, len(resp.Notifications))
	for i := range resp.Notifications {
		if n := notificationToUniversal(&resp.Notifications[i]); n != nil {
			out = append(out, n)
			a.cache.AddUsersFromNotification(n)
		}
	}
	return out
}

// Conversations: the chat API lives on a separate service and is not
// wired; the platform reports DirectMessages as unsupported.
func (a *Account) Conversations(ctx context.Context, page platform.Page) []*model.Conversation {
	return nil
}

func (a *Account) Favourites(ctx context.Context, page platform.Page) []*model.Status {
	resp, err := a.client.ActorLikes(ctx, a.me.ID, page.Limit, a.fetchCursor(cursorFavourites, page))
	if err != nil {
		a.reporter.Report(err, "favourites")
		return nil
	}
	a.cursors.Set(cursorFavourites, resp.Cursor)
	return a.convertFeed(resp.Feed)
}

func (a *Account) UserStatuses(ctx context.Context, userID string, page platform.Page) []*model.Status {
	key := cursorUser + userID
	resp, err := a.client.AuthorFeed(ctx, userID, page.Limit, a.fetchCursor(key, page))
	if err != nil {
		a.reporter.Report(err, "user statuses")
		return nil
	}
	a.cursors.Set(key, resp.Cursor)
	return a.convertFeed(resp.Feed)
}

// ListTimeline: lists are reported as unsupported.
func (a *Account) ListTimeline(ctx context.Context, listID string, page platform.Page) []*model.Status {
	return nil
}

// FeedTimeline reads a feed generator as a timeline.
func (a *Account) FeedTimeline(ctx context.Context, feedURI string, page platform.Page) []*model.Status {
	key := cursorFeed + feedURI
	resp, err := a.client.Feed(ctx, feedURI, page.Limit, a.fetchCursor(key, page))
	if err != nil {
		a.reporter.Report(err, "feed timeline")
		return nil
	}
	a.cursors.Set(key, resp.Cursor)
	return a.convertFeed(resp.Feed)
}

func (a *Account) SearchStatuses(ctx context.Context, query string, page platform.Page) []*model.Status {
	key := cursorSearch + query
	resp, err := a.client.SearchPosts(ctx, query, page.Limit, a.fetchCursor(key, page))
	if err != nil {
		a.reporter.Report(err, "search")
		return nil
	}
	a.cursors.Set(key, resp.Cursor)
	return a.convertPosts(resp.Posts)
}

func (a *Account) Status(ctx context.Context, id string) *model.Status {
	resp, err := a.client.Posts(ctx, []string{id})
	if err != nil {
		a.reporter.Report(err, "get status")
		return nil
	}
	if len(resp.Posts) == 0 {
		return nil
	}
	p := &resp.Posts[0]
	a.rememberRef(p)
	st := postViewToStatus(p)
	if st != nil {
		a.cache.AddUsersFromStatus(st)
	}
	return st
}

func (a *Account) StatusContext(ctx context.Context, id string) *model.Context {
	resp, err := a.client.PostThread(ctx, id, maxAncestorDepth)
	if err != nil {
		a.reporter.Report(err, "thread context")
		return &model.Context{}
	}
	return a.contextFromThread(resp.Thread)
}

// ============ Actions ============

// Post creates a post record. Visibility and spoiler text have no
// protocol equivalent and are ignored; labels become self-labels.
func (a *Account) Post(ctx context.Context, req platform.PostRequest) *model.Status {
	if n := uniseg.GraphemeClusterCount(req.Text); n > maxPostGraphemes {
		a.reporter.Report(fmt.Errorf("post is %d graphemes, limit is %d", n, maxPostGraphemes), "post")
		return nil
	}

	rec := postRecord{
		Type:      collectionPost,
		Text:      req.Text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if req.InReplyToID != "" {
		refs, err := a.replyRefs(ctx, req.InReplyToID)
		if err != nil {
			a.reporter.Report(err, "reply refs")
			return nil
		}
		rec.Reply = refs
	}
	if len(req.Labels) > 0 {
		labels := &selfLabels{Values: make([]label, 0, len(req.Labels))}
		for _, val := range req.Labels {
			labels.Values = append(labels.Values, label{Val: val})
		}
		rec.Labels = labels
	}

	created, err := a.client.CreateRecord(ctx, collectionPost, rec)
	if err != nil {
		a.reporter.Report(err, "post")
		return nil
	}
	a.refs.Add(created.URI, created.CID)
	return a.Status(ctx, created.URI)
}

// Quote posts a new status embedding the quoted post. visibility is
// accepted for interface parity and ignored; the protocol has no
// per-post visibility.
func (a *Account) Quote(ctx context.Context, quoted *model.Status, text, _ string) *model.Status {
	if quoted == nil {
		return nil
	}
	if n := uniseg.GraphemeClusterCount(text); n > maxPostGraphemes {
		a.reporter.Report(fmt.Errorf("post is %d graphemes, limit is %d", n, maxPostGraphemes), "quote")
		return nil
	}

	ref, err := a.strongRef(ctx, quoted.ActionableID())
	if err != nil {
		a.reporter.Report(err, "quote")
		return nil
	}
	rec := postRecord{
		Type:      collectionPost,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Embed:     &embedRecordRef{Type: "app.bsky.embed.record", Record: ref},
	}
	created, err := a.client.CreateRecord(ctx, collectionPost, rec)
	if err != nil {
		a.reporter.Report(err, "quote")
		return nil
	}
	a.refs.Add(created.URI, created.CID)
	return a.Status(ctx, created.URI)
}

func (a *Account) Boost(ctx context.Context, id string) bool {
	ref, err := a.strongRef(ctx, id)
	if err != nil {
		a.reporter.Report(err, "boost")
		return false
	}
	rec := repostRecord{
		Type:      collectionRepost,
		Subject:   ref,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.client.CreateRecord(ctx, collectionRepost, rec); err != nil {
		a.reporter.Report(err, "boost")
		return false
	}
	return true
}

func (a *Account) Favourite(ctx context.Context, id string) bool {
	ref, err := a.strongRef(ctx, id)
	if err != nil {
		a.reporter.Report(err, "favourite")
		return false
	}
	rec := likeRecord{
		Type:      collectionLike,
		Subject:   ref,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.client.CreateRecord(ctx, collectionLike, rec); err != nil {
		a.reporter.Report(err, "favourite")
		return false
	}
	return true
}

// viewerRecordURI refetches the post and returns the viewer-state
// record uri selected by pick. Undo actions need it because the like
// and repost record keys live in the viewer state, not in the post id.
func (a *Account) viewerRecordURI(ctx context.Context, id, op string, pick func(*postViewer) string) (string, bool) {
	resp, err := a.client.Posts(ctx, []string{id})
	if err != nil {
		a.reporter.Report(err, op)
		return "", false
	}
	if len(resp.Posts) == 0 || resp.Posts[0].Viewer == nil {
		return "", true
	}
	return pick(resp.Posts[0].Viewer), true
}

func (a *Account) Unboost(ctx context.Context, id string) bool {
	uri, ok := a.viewerRecordURI(ctx, id, "unboost", func(v *postViewer) string { return v.Repost })
	if !ok {
		return false
	}
	if uri == "" {
		// Not boosted; the undo is already in effect.
		return true
	}
	if err := a.client.DeleteRecord(ctx, collectionRepost, rkeyFromURI(uri)); err != nil {
		a.reporter.Report(err, "unboost")
		return false
	}
	return true
}

func (a *Account) Unfavourite(ctx context.Context, id string) bool {
	uri, ok := a.viewerRecordURI(ctx, id, "unfavourite", func(v *postViewer) string { return v.Like })
	if !ok {
		return false
	}
	if uri == "" {
		return true
	}
	if err := a.client.DeleteRecord(ctx, collectionLike, rkeyFromURI(uri)); err != nil {
		a.reporter.Report(err, "unfavourite")
		return false
	}
	return true
}

func (a *Account) DeleteStatus(ctx context.Context, id string) bool {
	if err := a.client.DeleteRecord(ctx, collectionPost, rkeyFromURI(id)); err != nil {
		a.reporter.Report(err, "delete")
		return false
	}
	return true
}

// ============ Social graph ============

func (a *Account) User(ctx context.Context, id string) *model.User {
	if _, err := syntax.ParseAtIdentifier(id); err != nil {
		a.reporter.Report(fmt.Errorf("invalid identifier %q: %w", id, err), "get user")
		return nil
	}
	profile, err := a.client.Profile(ctx, id)
	if err != nil {
		a.reporter.Report(err, "get user")
		return nil
	}
	u := profileToUser(profile)
	a.cache.AddUser(u)
	return u
}

func (a *Account) SearchUsers(ctx context.Context, query string, limit int) []*model.User {
	resp, err := a.client.SearchActors(ctx, query, limit)
	if err != nil {
		a.reporter.Report(err, "search users")
		return nil
	}
	return a.convertProfiles(resp.Actors)
}

// LookupUserByName resolves a handle through actor search; suitable as
// the user cache's recovery callback.
func (a *Account) LookupUserByName(ctx context.Context, name string) *model.User {
	users := a.SearchUsers(ctx, name, 1)
	if len(users) == 0 {
		return nil
	}
	return users[0]
}

func (a *Account) Follow(ctx context.Context, userID string) bool {
	did, err := a.resolveDID(ctx, userID)
	if err != nil {
		a.reporter.Report(err, "follow")
		return false
	}
	rec := followRecord{
		Type:      collectionFollow,
		Subject:   did,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.client.CreateRecord(ctx, collectionFollow, rec); err != nil {
		a.reporter.Report(err, "follow")
		return false
	}
	return true
}

// graphRecordURI refetches a profile and returns the viewer-state
// record uri selected by pick, for unfollow/unblock.
func (a *Account) graphRecordURI(ctx context.Context, userID, op string, pick func(*actorViewer) string) (string, bool) {
	profile, err := a.client.Profile(ctx, userID)
	if err != nil {
		a.reporter.Report(err, op)
		return "", false
	}
	if profile.Viewer == nil {
		return "", true
	}
	return pick(profile.Viewer), true
}

func (a *Account) Unfollow(ctx context.Context, userID string) bool {
	uri, ok := a.graphRecordURI(ctx, userID, "unfollow", func(v *actorViewer) string { return v.Following })
	if !ok {
		return false
	}
	if uri == "" {
		return true
	}
	if err := a.client.DeleteRecord(ctx, collectionFollow, rkeyFromURI(uri)); err != nil {
		a.reporter.Report(err, "unfollow")
		return false
	}
	return true
}

func (a *Account) Block(ctx context.Context, userID string) bool {
	did, err := a.resolveDID(ctx, userID)
	if err != nil {
		a.reporter.Report(err, "block")
		return false
	}
	rec := blockRecord{
		Type:      collectionBlock,
		Subject:   did,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.client.CreateRecord(ctx, collectionBlock, rec); err != nil {
		a.reporter.Report(err, "block")
		return false
	}
	return true
}

func (a *Account) Unblock(ctx context.Context, userID string) bool {
	uri, ok := a.graphRecordURI(ctx, userID, "unblock", func(v *actorViewer) string { return v.Blocking })
	if !ok {
		return false
	}
	if uri == "" {
		return true
	}
	if err := a.client.DeleteRecord(ctx, collectionBlock, rkeyFromURI(uri)); err != nil {
		a.reporter.Report(err, "unblock")
		return false
	}
	return true
}

func (a *Account) Mute(ctx context.Context, userID string) bool {
	if err := a.client.MuteActor(ctx, userID); err != nil {
		a.reporter.Report(err, "mute")
		return false
	}
	return true
}

func (a *Account) Unmute(ctx context.Context, userID string) bool {
	if err := a.client.UnmuteActor(ctx, userID); err != nil {
		a.reporter.Report(err, "unmute")
		return false
	}
	return true
}

func (a *Account) Followers(ctx context.Context, userID string, limit int) []*model.User {
	resp, err := a.client.Followers(ctx, userID, limit, "")
	if err != nil {
		a.reporter.Report(err, "followers")
		return nil
	}
	return a.convertProfiles(resp.Followers)
}

func (a *Account) Following(ctx context.Context, userID string, limit int) []*model.User {
	resp, err := a.client.Follows(ctx, userID, limit, "")
	if err != nil {
		a.reporter.Report(err, "following")
		return nil
	}
	return a.convertProfiles(resp.Follows)
}

// ============ Lists ============

// Lists are reported as unsupported; the canonical empty/false results
// follow.

func (a *Account) Lists(ctx context.Context) []*model.List { return nil }

func (a *Account) ListMembers(ctx context.Context, listID string) []*model.User { return nil }

func (a *Account) AddToList(ctx context.Context, listID, userID string) bool { return false }

func (a *Account) RemoveFromList(ctx context.Context, listID, userID string) bool { return false }

// ============ Feeds ============

// SavedFeeds returns the feed generators saved in the account's
// preferences, pinned and saved alike.
func (a *Account) SavedFeeds(ctx context.Context) []model.Feed {
	resp, err := a.client.Preferences(ctx)
	if err != nil {
		a.reporter.Report(err, "saved feeds")
		return nil
	}

	seen := make(map[string]struct{})
	var uris []string
	add := func(uri string) {
		if !strings.HasPrefix(uri, "at://") {
			return
		}
		if _, dup := seen[uri]; dup {
			return
		}
		seen[uri] = struct{}{}
		uris = append(uris, uri)
	}
	for _, raw := range resp.Preferences {
		var pref savedFeedsPref
		if err := json.Unmarshal(raw, &pref); err != nil {
			continue
		}
		if !strings.Contains(pref.Type, "savedFeedsPref") {
			continue
		}
		for _, item := range pref.Items {
			add(item.Value)
		}
		for _, uri := range pref.Pinned {
			add(uri)
		}
		for _, uri := range pref.Saved {
			add(uri)
		}
	}
	if len(uris) == 0 {
		// Nothing saved yet; offer the popular feeds instead.
		return a.SearchFeeds(ctx, "", maxFetchLimit)
	}

	gens, err := a.client.FeedGenerators(ctx, uris)
	if err != nil {
		a.reporter.Report(err, "saved feeds")
		return nil
	}
	feeds := make([]model.Feed, 0, len(gens.Feeds))
	for i := range gens.Feeds {
		feeds = append(feeds, generatorToFeed(&gens.Feeds[i]))
	}
	return feeds
}

// SearchFeeds finds feed generators matching a query.
func (a *Account) SearchFeeds(ctx context.Context, query string, limit int) []model.Feed {
	resp, err := a.client.PopularFeedGenerators(ctx, query, limit)
	if err != nil {
		a.reporter.Report(err, "search feeds")
		return nil
	}
	feeds := make([]model.Feed, 0, len(resp.Feeds))
	for i := range resp.Feeds {
		feeds = append(feeds, generatorToFeed(&resp.Feeds[i]))
	}
	return feeds
}
