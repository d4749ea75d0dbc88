package bluesky

import "context"

// api is the client surface the account depends on; tests substitute a
// fake.
type api interface {
	Timeline(ctx context.Context, limit int, cursor string) (*feedResponse, error)
	ListNotifications(ctx context.Context, limit int, cursor string) (*notificationsResponse, error)
	AuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*feedResponse, error)
	ActorLikes(ctx context.Context, actor string, limit int, cursor string) (*feedResponse, error)
	Feed(ctx context.Context, feedURI string, limit int, cursor string) (*feedResponse, error)
	SearchPosts(ctx context.Context, q string, limit int, cursor string) (*searchPostsResponse, error)
	Posts(ctx context.Context, uris []string) (*postsResponse, error)
	PostThread(ctx context.Context, uri string, parentHeight int) (*threadResponse, error)
	Profile(ctx context.Context, actor string) (*profileView, error)
	SearchActors(ctx context.Context, q string, limit int) (*actorsResponse, error)
	Followers(ctx context.Context, actor string, limit int, cursor string) (*followersResponse, error)
	Follows(ctx context.Context, actor string, limit int, cursor string) (*followsResponse, error)
	MuteActor(ctx context.Context, actor string) error
	UnmuteActor(ctx context.Context, actor string) error
	Preferences(ctx context.Context) (*preferencesResponse, error)
	FeedGenerators(ctx context.Context, uris []string) (*generatorsResponse, error)
	PopularFeedGenerators(ctx context.Context, q string, limit int) (*generatorsResponse, error)
	CreateRecord(ctx context.Context, collection string, record any) (*strongRef, error)
	DeleteRecord(ctx context.Context, collection, rkey string) error
}

var _ api = (*Client)(nil)
