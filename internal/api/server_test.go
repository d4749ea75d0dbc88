package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/platform"
	"github.com/hmdqr/FastSM/internal/platform/bluesky"
	"github.com/hmdqr/FastSM/internal/platform/mastodon"
	"github.com/hmdqr/FastSM/internal/usercache"
)

// fakeAccount implements platform.Account with canned data.
type fakeAccount struct {
	me      *model.User
	home    []*model.Status
	posted  []platform.PostRequest
	actions []string
}

var _ platform.Account = (*fakeAccount)(nil)

func (f *fakeAccount) PlatformName() string            { return "fake" }
func (f *fakeAccount) Features() platform.Features     { return platform.Features{QuotePosts: true} }
func (f *fakeAccount) Me() *model.User                 { return f.me }
func (f *fakeAccount) MaxChars() int                   { return 500 }
func (f *fakeAccount) UserCache() *usercache.Cache     { return usercache.New() }

func (f *fakeAccount) HomeTimeline(context.Context, platform.Page) []*model.Status { return f.home }
func (f *fakeAccount) Mentions(context.Context, platform.Page) []*model.Status     { return nil }
func (f *fakeAccount) Notifications(context.Context, platform.Page) []*model.Notification {
	return nil
}
func (f *fakeAccount) Conversations(context.Context, platform.Page) []*model.Conversation {
	return nil
}
func (f *fakeAccount) Favourites(context.Context, platform.Page) []*model.Status { return nil }
func (f *fakeAccount) UserStatuses(context.Context, string, platform.Page) []*model.Status {
	return nil
}
func (f *fakeAccount) ListTimeline(context.Context, string, platform.Page) []*model.Status {
	return nil
}
func (f *fakeAccount) SearchStatuses(context.Context, string, platform.Page) []*model.Status {
	return nil
}
func (f *fakeAccount) Status(context.Context, string) *model.Status { return nil }
func (f *fakeAccount) StatusContext(context.Context, string) *model.Context {
	return &model.Context{}
}

func (f *fakeAccount) Post(_ context.Context, req platform.PostRequest) *model.Status {
	f.posted = append(f.posted, req)
	return &model.Status{ID: "new", Content: req.Text}
}

func (f *fakeAccount) action(name string) bool {
	f.actions = append(f.actions, name)
	return true
}

func (f *fakeAccount) Boost(_ context.Context, id string) bool        { return f.action("boost:" + id) }
func (f *fakeAccount) Unboost(_ context.Context, id string) bool      { return f.action("unboost:" + id) }
func (f *fakeAccount) Favourite(_ context.Context, id string) bool    { return f.action("favourite:" + id) }
func (f *fakeAccount) Unfavourite(_ context.Context, id string) bool  { return f.action("unfavourite:" + id) }
func (f *fakeAccount) DeleteStatus(_ context.Context, id string) bool { return f.action("delete:" + id) }

func (f *fakeAccount) User(context.Context, string) *model.User              { return nil }
func (f *fakeAccount) SearchUsers(context.Context, string, int) []*model.User { return nil }
func (f *fakeAccount) Follow(_ context.Context, id string) bool              { return f.action("follow:" + id) }
func (f *fakeAccount) Unfollow(_ context.Context, id string) bool            { return f.action("unfollow:" + id) }
func (f *fakeAccount) Block(_ context.Context, id string) bool               { return f.action("block:" + id) }
func (f *fakeAccount) Unblock(_ context.Context, id string) bool             { return f.action("unblock:" + id) }
func (f *fakeAccount) Mute(_ context.Context, id string) bool                { return f.action("mute:" + id) }
func (f *fakeAccount) Unmute(_ context.Context, id string) bool              { return f.action("unmute:" + id) }
func (f *fakeAccount) Followers(context.Context, string, int) []*model.User  { return nil }
func (f *fakeAccount) Following(context.Context, string, int) []*model.User  { return nil }

func (f *fakeAccount) Lists(context.Context) []*model.List                   { return nil }
func (f *fakeAccount) ListMembers(context.Context, string) []*model.User     { return nil }
func (f *fakeAccount) AddToList(context.Context, string, string) bool        { return false }
func (f *fakeAccount) RemoveFromList(context.Context, string, string) bool   { return false }

func newTestServer(f platform.Account) http.Handler {
	return NewServer(map[string]platform.Account{"fake": f}, zerolog.Nop()).Router()
}

func TestHomeTimelineEndpoint(t *testing.T) {
	f := &fakeAccount{
		me:   &model.User{ID: "me"},
		home: []*model.Status{{ID: "s1", Content: "hello"}},
	}
	srv := newTestServer(f)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/home?limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []*model.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "s1", statuses[0].ID)
}

func TestUnknownPlatformIs404(t *testing.T) {
	srv := newTestServer(&fakeAccount{me: &model.User{ID: "me"}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nope/timelines/home", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UnknownPlatform")
}

func TestPostEndpoint(t *testing.T) {
	f := &fakeAccount{me: &model.User{ID: "me"}}
	srv := newTestServer(f)

	body := strings.NewReader(`{"text":"hello world","visibility":"unlisted"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.posted, 1)
	assert.Equal(t, "hello world", f.posted[0].Text)
	assert.Equal(t, "unlisted", f.posted[0].Visibility)
}

func TestPostRequiresText(t *testing.T) {
	srv := newTestServer(&fakeAccount{me: &model.User{ID: "me"}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusActionEndpoint(t *testing.T) {
	f := &fakeAccount{me: &model.User{ID: "me"}}
	srv := newTestServer(f)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses/favourite?id=s1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"favourite:s1"}, f.actions)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses/explode?id=s1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphActionEndpoint(t *testing.T) {
	f := &fakeAccount{me: &model.User{ID: "me"}}
	srv := newTestServer(f)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/graph/follow?id=did:plc:x", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"follow:did:plc:x"}, f.actions)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	assert.True(t, rl.allow("client"))
	assert.True(t, rl.allow("client"))
	assert.False(t, rl.allow("client"))
	// Other clients have their own window.
	assert.True(t, rl.allow("other"))
}

// extrasAccount layers the optional capability surfaces on top of the
// base fake.
type extrasAccount struct {
	fakeAccount
	feeds  []model.Feed
	quoted []string
}

func (f *extrasAccount) LocalTimeline(context.Context, platform.Page) []*model.Status {
	return []*model.Status{{ID: "local1"}}
}

func (f *extrasAccount) FederatedTimeline(context.Context, platform.Page) []*model.Status {
	return []*model.Status{{ID: "fed1"}}
}

func (f *extrasAccount) FeedTimeline(_ context.Context, feedID string, _ platform.Page) []*model.Status {
	return []*model.Status{{ID: "from:" + feedID}}
}

func (f *extrasAccount) SavedFeeds(context.Context) []model.Feed { return f.feeds }

func (f *extrasAccount) SearchFeeds(context.Context, string, int) []model.Feed { return f.feeds }

func (f *extrasAccount) Status(_ context.Context, id string) *model.Status {
	return &model.Status{ID: id}
}

func (f *extrasAccount) Quote(_ context.Context, quoted *model.Status, text, visibility string) *model.Status {
	f.quoted = append(f.quoted, quoted.ID+":"+text+":"+visibility)
	return &model.Status{ID: "q1", Content: text}
}

func TestFeedEndpoints(t *testing.T) {
	f := &extrasAccount{
		fakeAccount: fakeAccount{me: &model.User{ID: "me"}},
		feeds:       []model.Feed{{ID: "at://did:plc:x/app.bsky.feed.generator/hot", Name: "Hot"}},
	}
	srv := newTestServer(f)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fake/feeds", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var feeds []model.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feeds))
	require.Len(t, feeds, 1)
	assert.Equal(t, "Hot", feeds[0].Name)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/fake/timelines/feed?feed=at://did:plc:x/app.bsky.feed.generator/hot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []*model.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "from:at://did:plc:x/app.bsky.feed.generator/hot", statuses[0].ID)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/feed", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "feed parameter is required")
}

func TestPublicTimelineEndpoints(t *testing.T) {
	f := &extrasAccount{fakeAccount: fakeAccount{me: &model.User{ID: "me"}}}
	srv := newTestServer(f)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/local", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "local1")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/federated", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fed1")
}

func TestQuoteEndpoint(t *testing.T) {
	f := &extrasAccount{fakeAccount: fakeAccount{me: &model.User{ID: "me"}}}
	srv := newTestServer(f)

	body := strings.NewReader(`{"quoted_id":"42","text":"look","visibility":"public"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses/quote", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"42:look:public"}, f.quoted)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fake/statuses/quote",
		strings.NewReader(`{"text":"no subject"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptionalSurfacesAre404WhenMissing(t *testing.T) {
	srv := newTestServer(&fakeAccount{me: &model.User{ID: "me"}})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/local", nil),
		httptest.NewRequest(http.MethodGet, "/v1/fake/timelines/federated", nil),
		httptest.NewRequest(http.MethodGet, "/v1/fake/feeds", nil),
		httptest.NewRequest(http.MethodGet, "/v1/fake/search/feeds?q=x", nil),
		httptest.NewRequest(http.MethodPost, "/v1/fake/statuses/quote",
			strings.NewReader(`{"quoted_id":"1","text":"x"}`)),
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.URL.Path)
		assert.Contains(t, rec.Body.String(), "Unsupported", req.URL.Path)
	}
}

func TestAdaptersExposeOptionalSurfaces(t *testing.T) {
	assert.Implements(t, (*publicTimeliner)(nil), &mastodon.Account{})
	assert.Implements(t, (*quotePoster)(nil), &mastodon.Account{})
	assert.Implements(t, (*feedBrowser)(nil), &bluesky.Account{})
	assert.Implements(t, (*quotePoster)(nil), &bluesky.Account{})
}
