package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hmdqr/FastSM/internal/platform"
)

const (
	defaultHost   = "https://bsky.social"
	maxFetchLimit = 100
	// getPosts takes at most this many uris per call.
	getPostsChunk = 25
)

// Client is a thin XRPC client over the app.bsky and com.atproto
// endpoints the adapter needs. Calls that target the same endpoint
// share a circuit breaker so a failing endpoint backs off without
// blocking the others.
type Client struct {
	host    string
	did     string
	token   string
	hc      *http.Client
	breaker *platform.Breaker
}

func NewClient(host, did, token string, hc *http.Client) *Client {
	if host == "" {
		host = defaultHost
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		host:    host,
		did:     did,
		token:   token,
		hc:      hc,
		breaker: platform.NewBreaker(),
	}
}

// query performs an XRPC GET.
func (c *Client) query(ctx context.Context, nsid string, params url.Values, out any) error {
	u := c.host + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", nsid, err)
	}
	return c.do(nsid, req, out)
}

// procedure performs an XRPC POST with an optional JSON body.
func (c *Client) procedure(ctx context.Context, nsid string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", nsid, err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/xrpc/"+nsid, rd)
	if err != nil {
		return fmt.Errorf("building %s request: %w", nsid, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(nsid, req, out)
}

func (c *Client) do(nsid string, req *http.Request, out any) error {
	if !c.breaker.Allow(nsid) {
		return fmt.Errorf("%s: %w", nsid, platform.ErrCircuitOpen)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		c.breaker.Failure(nsid)
		return fmt.Errorf("calling %s: %w", nsid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.breaker.Failure(nsid)
		var xe xrpcError
		if err := json.NewDecoder(resp.Body).Decode(&xe); err == nil && xe.Error != "" {
			return fmt.Errorf("%s: %s: %s (status %d)", nsid, xe.Error, xe.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s: unexpected status %d", nsid, resp.StatusCode)
	}
	c.breaker.Success(nsid)

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", nsid, err)
	}
	return nil
}

func pageParams(limit int, cursor string) url.Values {
	if limit <= 0 || limit > maxFetchLimit {
		limit = maxFetchLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

func (c *Client) Timeline(ctx context.Context, limit int, cursor string) (*feedResponse, error) {
	var out feedResponse
	if err := c.query(ctx, "app.bsky.feed.getTimeline", pageParams(limit, cursor), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotifications(ctx context.Context, limit int, cursor string) (*notificationsResponse, error) {
	var out notificationsResponse
	if err := c.query(ctx, "app.bsky.notification.listNotifications", pageParams(limit, cursor), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*feedResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("actor", actor)
	var out feedResponse
	if err := c.query(ctx, "app.bsky.feed.getAuthorFeed", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ActorLikes(ctx context.Context, actor string, limit int, cursor string) (*feedResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("actor", actor)
	var out feedResponse
	if err := c.query(ctx, "app.bsky.feed.getActorLikes", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Feed(ctx context.Context, feedURI string, limit int, cursor string) (*feedResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("feed", feedURI)
	var out feedResponse
	if err := c.query(ctx, "app.bsky.feed.getFeed", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchPosts(ctx context.Context, q string, limit int, cursor string) (*searchPostsResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("q", q)
	var out searchPostsResponse
	if err := c.query(ctx, "app.bsky.feed.searchPosts", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Posts hydrates full post views for up to getPostsChunk uris.
func (c *Client) Posts(ctx context.Context, uris []string) (*postsResponse, error) {
	params := url.Values{}
	for _, uri := range uris {
		params.Add("uris", uri)
	}
	var out postsResponse
	if err := c.query(ctx, "app.bsky.feed.getPosts", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PostThread(ctx context.Context, uri string, parentHeight int) (*threadResponse, error) {
	params := url.Values{}
	params.Set("uri", uri)
	if parentHeight > 0 {
		params.Set("parentHeight", strconv.Itoa(parentHeight))
	}
	var out threadResponse
	if err := c.query(ctx, "app.bsky.feed.getPostThread", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, actor string) (*profileView, error) {
	params := url.Values{}
	params.Set("actor", actor)
	var out profileView
	if err := c.query(ctx, "app.bsky.actor.getProfile", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchActors(ctx context.Context, q string, limit int) (*actorsResponse, error) {
	params := pageParams(limit, "")
	params.Set("q", q)
	var out actorsResponse
	if err := c.query(ctx, "app.bsky.actor.searchActors", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Followers(ctx context.Context, actor string, limit int, cursor string) (*followersResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("actor", actor)
	var out followersResponse
	if err := c.query(ctx, "app.bsky.graph.getFollowers", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Follows(ctx context.Context, actor string, limit int, cursor string) (*followsResponse, error) {
	params := pageParams(limit, cursor)
	params.Set("actor", actor)
	var out followsResponse
	if err := c.query(ctx, "app.bsky.graph.getFollows", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MuteActor(ctx context.Context, actor string) error {
	return c.procedure(ctx, "app.bsky.graph.muteActor", map[string]string{"actor": actor}, nil)
}

func (c *Client) UnmuteActor(ctx context.Context, actor string) error {
	return c.procedure(ctx, "app.bsky.graph.unmuteActor", map[string]string{"actor": actor}, nil)
}

func (c *Client) Preferences(ctx context.Context) (*preferencesResponse, error) {
	var out preferencesResponse
	if err := c.query(ctx, "app.bsky.actor.getPreferences", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FeedGenerators(ctx context.Context, uris []string) (*generatorsResponse, error) {
	params := url.Values{}
	for _, uri := range uris {
		params.Add("feeds", uri)
	}
	var out generatorsResponse
	if err := c.query(ctx, "app.bsky.feed.getFeedGenerators", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PopularFeedGenerators(ctx context.Context, q string, limit int) (*generatorsResponse, error) {
	params := pageParams(limit, "")
	if q != "" {
		params.Set("query", q)
	}
	var out generatorsResponse
	if err := c.query(ctx, "app.bsky.unspecced.getPopularFeedGenerators", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecord writes a record into the authenticated repo and returns
// its strong ref.
func (c *Client) CreateRecord(ctx context.Context, collection string, record any) (*strongRef, error) {
	body := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"record":     record,
	}
	var out strongRef
	if err := c.procedure(ctx, "com.atproto.repo.createRecord", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, collection, rkey string) error {
	body := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
	}
	return c.procedure(ctx, "com.atproto.repo.deleteRecord", body, nil)
}
