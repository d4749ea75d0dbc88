package mastodon

import (
	"context"
	"net/url"

	"github.com/hmdqr/FastSM/internal/platform"
)

// api is the slice of the REST client the account logic consumes.
// Tests substitute a fake; production uses *Client.
type api interface {
	VerifyCredentials(ctx context.Context) (*apiAccount, error)
	Instance(ctx context.Context) (*apiInstance, error)
	TimelineHome(ctx context.Context, page platform.Page) ([]apiStatus, error)
	TimelinePublic(ctx context.Context, local bool, page platform.Page) ([]apiStatus, error)
	TimelineList(ctx context.Context, listID string, page platform.Page) ([]apiStatus, error)
	Notifications(ctx context.Context, mentionsOnly bool, page platform.Page) ([]apiNotification, error)
	Favourites(ctx context.Context, page platform.Page) ([]apiStatus, error)
	Conversations(ctx context.Context, page platform.Page) ([]apiConversation, error)
	AccountStatuses(ctx context.Context, accountID string, page platform.Page) ([]apiStatus, error)
	Search(ctx context.Context, query, resultType string, limit int) (*apiSearchResults, error)
	GetStatus(ctx context.Context, id string) (*apiStatus, error)
	StatusContext(ctx context.Context, id string) (*apiContext, error)
	PostStatus(ctx context.Context, form url.Values) (*apiStatus, error)
	StatusAction(ctx context.Context, id, action string) error
	DeleteStatus(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*apiAccount, error)
	AccountSearch(ctx context.Context, query string, limit int) ([]apiAccount, error)
	AccountAction(ctx context.Context, id, action string) error
	AccountFollowers(ctx context.Context, id string, limit int) ([]apiAccount, error)
	AccountFollowing(ctx context.Context, id string, limit int) ([]apiAccount, error)
	Lists(ctx context.Context) ([]apiList, error)
	ListAccounts(ctx context.Context, listID string) ([]apiAccount, error)
	ListAccountsAdd(ctx context.Context, listID, accountID string) error
	ListAccountsRemove(ctx context.Context, listID, accountID string) error
}

var _ api = (*Client)(nil)
