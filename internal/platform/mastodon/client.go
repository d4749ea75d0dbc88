package mastodon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hmdqr/FastSM/internal/platform"
)

const defaultTimeout = 30 * time.Second

// Client is a thin typed wrapper over the Mastodon REST API. Every call
// passes through the circuit breaker keyed by endpoint path.
type Client struct {
	rc      *resty.Client
	breaker *platform.Breaker
}

// NewClient builds a client for one instance with a bearer token. The
// HTTP client is optional.
func NewClient(server, token string, httpClient *http.Client) *Client {
	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(server).
		SetAuthToken(token).
		SetTimeout(defaultTimeout)
	return &Client{
		rc:      rc,
		breaker: platform.NewBreaker(),
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, out any) error {
	if !c.breaker.Allow(path) {
		return fmt.Errorf("%w: %s", platform.ErrCircuitOpen, path)
	}

	req := c.rc.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if form != nil {
		req.SetFormDataFromValues(form)
	}
	if out != nil {
		req.SetResult(out)
	}
	var apiErr apiError
	req.SetError(&apiErr)

	resp, err := req.Execute(method, path)
	if err != nil {
		c.breaker.Failure(path)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		c.breaker.Failure(path)
		if apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (HTTP %d)", method, path, apiErr.Error, resp.StatusCode())
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode())
	}
	c.breaker.Success(path)
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, form, out)
}

func pageQuery(page platform.Page) url.Values {
	q := url.Values{}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.MaxID != "" {
		q.Set("max_id", page.MaxID)
	}
	if page.SinceID != "" {
		q.Set("since_id", page.SinceID)
	}
	if page.MinID != "" {
		q.Set("min_id", page.MinID)
	}
	return q
}

// VerifyCredentials resolves the authenticated account.
func (c *Client) VerifyCredentials(ctx context.Context) (*apiAccount, error) {
	var out apiAccount
	if err := c.get(ctx, "/api/v1/accounts/verify_credentials", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Instance fetches the instance metadata.
func (c *Client) Instance(ctx context.Context) (*apiInstance, error) {
	var out apiInstance
	if err := c.get(ctx, "/api/v1/instance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimelineHome returns the home timeline page.
func (c *Client) TimelineHome(ctx context.Context, page platform.Page) ([]apiStatus, error) {
	var out []apiStatus
	if err := c.get(ctx, "/api/v1/timelines/home", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TimelinePublic returns the local or federated public timeline.
func (c *Client) TimelinePublic(ctx context.Context, local bool, page platform.Page) ([]apiStatus, error) {
	q := pageQuery(page)
	if local {
		q.Set("local", "true")
	}
	var out []apiStatus
	if err := c.get(ctx, "/api/v1/timelines/public", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TimelineList returns a list timeline page.
func (c *Client) TimelineList(ctx context.Context, listID string, page platform.Page) ([]apiStatus, error) {
	var out []apiStatus
	if err := c.get(ctx, "/api/v1/timelines/list/"+url.PathEscape(listID), pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Notifications returns notifications, optionally mention-type only.
func (c *Client) Notifications(ctx context.Context, mentionsOnly bool, page platform.Page) ([]apiNotification, error) {
	q := pageQuery(page)
	if mentionsOnly {
		q.Set("types[]", "mention")
	}
	var out []apiNotification
	if err := c.get(ctx, "/api/v1/notifications", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Favourites returns the viewer's favourited statuses.
func (c *Client) Favourites(ctx context.Context, page platform.Page) ([]apiStatus, error) {
	var out []apiStatus
	if err := c.get(ctx, "/api/v1/favourites", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversations returns direct-message conversations.
func (c *Client) Conversations(ctx context.Context, page platform.Page) ([]apiConversation, error) {
	var out []apiConversation
	if err := c.get(ctx, "/api/v1/conversations", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountStatuses returns one account's statuses.
func (c *Client) AccountStatuses(ctx context.Context, accountID string, page platform.Page) ([]apiStatus, error) {
	var out []apiStatus
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(accountID)+"/statuses", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a v2 search constrained to one result type.
func (c *Client) Search(ctx context.Context, query, resultType string, limit int) (*apiSearchResults, error) {
	q := url.Values{}
	q.Set("q", query)
	if resultType != "" {
		q.Set("type", resultType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out apiSearchResults
	if err := c.get(ctx, "/api/v2/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus fetches a single status.
func (c *Client) GetStatus(ctx context.Context, id string) (*apiStatus, error) {
	var out apiStatus
	if err := c.get(ctx, "/api/v1/statuses/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatusContext fetches a status's ancestors and descendants.
func (c *Client) StatusContext(ctx context.Context, id string) (*apiContext, error) {
	var out apiContext
	if err := c.get(ctx, "/api/v1/statuses/"+url.PathEscape(id)+"/context", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostStatus creates a status from the given form.
func (c *Client) PostStatus(ctx context.Context, form url.Values) (*apiStatus, error) {
	var out apiStatus
	if err := c.post(ctx, "/api/v1/statuses", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatusAction performs a named action (reblog, favourite, ...) on a status.
func (c *Client) StatusAction(ctx context.Context, id, action string) error {
	return c.post(ctx, "/api/v1/statuses/"+url.PathEscape(id)+"/"+action, nil, nil)
}

// DeleteStatus removes a status.
func (c *Client) DeleteStatus(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/statuses/"+url.PathEscape(id), nil, nil, nil)
}

// GetAccount fetches one account.
func (c *Client) GetAccount(ctx context.Context, id string) (*apiAccount, error) {
	var out apiAccount
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccountSearch searches accounts by name.
func (c *Client) AccountSearch(ctx context.Context, query string, limit int) ([]apiAccount, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []apiAccount
	if err := c.get(ctx, "/api/v1/accounts/search", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountAction performs a named relationship action (follow, block, ...).
func (c *Client) AccountAction(ctx context.Context, id, action string) error {
	return c.post(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/"+action, nil, nil)
}

// AccountFollowers lists an account's followers.
func (c *Client) AccountFollowers(ctx context.Context, id string, limit int) ([]apiAccount, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []apiAccount
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/followers", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountFollowing lists accounts an account follows.
func (c *Client) AccountFollowing(ctx context.Context, id string, limit int) ([]apiAccount, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []apiAccount
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/following", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lists returns the viewer's lists.
func (c *Client) Lists(ctx context.Context) ([]apiList, error) {
	var out []apiList
	if err := c.get(ctx, "/api/v1/lists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAccounts returns a list's members.
func (c *Client) ListAccounts(ctx context.Context, listID string) ([]apiAccount, error) {
	q := url.Values{}
	q.Set("limit", "0") // all members
	var out []apiAccount
	if err := c.get(ctx, "/api/v1/lists/"+url.PathEscape(listID)+"/accounts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAccountsAdd adds an account to a list.
func (c *Client) ListAccountsAdd(ctx context.Context, listID, accountID string) error {
	form := url.Values{}
	form.Add("account_ids[]", accountID)
	return c.post(ctx, "/api/v1/lists/"+url.PathEscape(listID)+"/accounts", form, nil)
}

// ListAccountsRemove removes an account from a list.
func (c *Client) ListAccountsRemove(ctx context.Context, listID, accountID string) error {
	q := url.Values{}
	q.Add("account_ids[]", accountID)
	return c.do(ctx, http.MethodDelete, "/api/v1/lists/"+url.PathEscape(listID)+"/accounts", q, nil, nil)
}
