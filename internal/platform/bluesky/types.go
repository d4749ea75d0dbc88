package bluesky

import "encoding/json"

// Wire types for the AT-Protocol XRPC endpoints this adapter consumes.
// Embeds and thread nodes are tagged unions discriminated on "$type";
// decoding is lenient and conversion fills typed defaults for anything
// missing, so a partial payload never fails a conversion.

const (
	typeReasonRepost    = "app.bsky.feed.defs#reasonRepost"
	typeEmbedImages     = "app.bsky.embed.images#view"
	typeEmbedVideo      = "app.bsky.embed.video#view"
	typeEmbedRecord     = "app.bsky.embed.record#view"
	typeEmbedRecordWith = "app.bsky.embed.recordWithMedia#view"
	typeFacetMention    = "app.bsky.richtext.facet#mention"

	collectionPost   = "app.bsky.feed.post"
	collectionLike   = "app.bsky.feed.like"
	collectionRepost = "app.bsky.feed.repost"
	collectionFollow = "app.bsky.graph.follow"
	collectionBlock  = "app.bsky.graph.block"
)

type strongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type actorViewer struct {
	Following string `json:"following,omitempty"` // viewer's follow record uri
	Blocking  string `json:"blocking,omitempty"`  // viewer's block record uri
	Muted     bool   `json:"muted,omitempty"`
}

type profileView struct {
	DID            string       `json:"did"`
	Handle         string       `json:"handle"`
	DisplayName    string       `json:"displayName,omitempty"`
	Description    string       `json:"description,omitempty"`
	Avatar         string       `json:"avatar,omitempty"`
	Banner         string       `json:"banner,omitempty"`
	FollowersCount int          `json:"followersCount,omitempty"`
	FollowsCount   int          `json:"followsCount,omitempty"`
	PostsCount     int          `json:"postsCount,omitempty"`
	Viewer         *actorViewer `json:"viewer,omitempty"`
}

type label struct {
	Val string `json:"val"`
}

type selfLabels struct {
	Values []label `json:"values"`
}

type facetFeature struct {
	Type string `json:"$type"`
	DID  string `json:"did,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type facet struct {
	Features []facetFeature `json:"features"`
}

// embedRecordRef is the write-path embed for quote posts.
type embedRecordRef struct {
	Type   string    `json:"$type"`
	Record strongRef `json:"record"`
}

type replyRefs struct {
	Root   strongRef `json:"root"`
	Parent strongRef `json:"parent"`
}

// postRecord is the app.bsky.feed.post record. On the read path only
// text, createdAt, reply, facets and labels are consumed.
type postRecord struct {
	Type      string          `json:"$type,omitempty"`
	Text      string          `json:"text"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Reply     *replyRefs      `json:"reply,omitempty"`
	Facets    []facet         `json:"facets,omitempty"`
	Labels    *selfLabels     `json:"labels,omitempty"`
	Embed     *embedRecordRef `json:"embed,omitempty"`
}

type imageView struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt,omitempty"`
}

// embedView is the resolved embed union on a post view. Exactly one
// shape is populated; Type says which.
type embedView struct {
	Type string `json:"$type"`

	// images#view
	Images []imageView `json:"images,omitempty"`

	// video#view
	CID       string `json:"cid,omitempty"`
	Playlist  string `json:"playlist,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Alt       string `json:"alt,omitempty"`

	// record#view and recordWithMedia#view
	Record *embedRecordView `json:"record,omitempty"`
	Media  *embedView       `json:"media,omitempty"`
}

// embedRecordView carries a quoted post. For record#view the viewRecord
// fields sit here directly; for recordWithMedia#view they are nested one
// level down in Record.
type embedRecordView struct {
	Record *embedRecordView `json:"record,omitempty"`

	URI         string       `json:"uri,omitempty"`
	CID         string       `json:"cid,omitempty"`
	Author      *profileView `json:"author,omitempty"`
	Value       *postRecord  `json:"value,omitempty"`
	LikeCount   int          `json:"likeCount,omitempty"`
	ReplyCount  int          `json:"replyCount,omitempty"`
	RepostCount int          `json:"repostCount,omitempty"`
	IndexedAt   string       `json:"indexedAt,omitempty"`
}

type postViewer struct {
	Like   string `json:"like,omitempty"`   // viewer's like record uri
	Repost string `json:"repost,omitempty"` // viewer's repost record uri
}

type postView struct {
	URI         string       `json:"uri"`
	CID         string       `json:"cid"`
	Author      *profileView `json:"author"`
	Record      *postRecord  `json:"record"`
	Embed       *embedView   `json:"embed,omitempty"`
	ReplyCount  int          `json:"replyCount"`
	RepostCount int          `json:"repostCount"`
	LikeCount   int          `json:"likeCount"`
	IndexedAt   string       `json:"indexedAt"`
	Viewer      *postViewer  `json:"viewer,omitempty"`
	Labels      []label      `json:"labels,omitempty"`
}

// reasonRepost marks a feed item as a repost wrapper: the post carries
// no content of its own, only who reposted and when.
type reasonRepost struct {
	Type      string       `json:"$type"`
	By        *profileView `json:"by,omitempty"`
	IndexedAt string       `json:"indexedAt,omitempty"`
}

type feedViewPost struct {
	Post   *postView     `json:"post"`
	Reason *reasonRepost `json:"reason,omitempty"`
}

// threadView is one node of a getPostThread response. A node whose Post
// is nil is a notFound/blocked placeholder in the parent chain.
type threadView struct {
	Type    string       `json:"$type"`
	Post    *postView    `json:"post,omitempty"`
	Parent  *threadView  `json:"parent,omitempty"`
	Replies []threadView `json:"replies,omitempty"`
}

type notificationView struct {
	URI       string          `json:"uri"`
	CID       string          `json:"cid"`
	Author    *profileView    `json:"author"`
	Reason    string          `json:"reason"`
	Record    json.RawMessage `json:"record,omitempty"`
	IndexedAt string          `json:"indexedAt"`
}

type generatorView struct {
	URI         string       `json:"uri"`
	DisplayName string       `json:"displayName"`
	Description string       `json:"description,omitempty"`
	Creator     *profileView `json:"creator,omitempty"`
}

// Responses.

type feedResponse struct {
	Feed   []feedViewPost `json:"feed"`
	Cursor string         `json:"cursor,omitempty"`
}

type postsResponse struct {
	Posts []postView `json:"posts"`
}

type searchPostsResponse struct {
	Posts  []postView `json:"posts"`
	Cursor string     `json:"cursor,omitempty"`
}

type threadResponse struct {
	Thread *threadView `json:"thread"`
}

type notificationsResponse struct {
	Notifications []notificationView `json:"notifications"`
	Cursor        string             `json:"cursor,omitempty"`
}

type actorsResponse struct {
	Actors []profileView `json:"actors"`
	Cursor string        `json:"cursor,omitempty"`
}

type followersResponse struct {
	Followers []profileView `json:"followers"`
	Cursor    string        `json:"cursor,omitempty"`
}

type followsResponse struct {
	Follows []profileView `json:"follows"`
	Cursor  string        `json:"cursor,omitempty"`
}

type preferencesResponse struct {
	Preferences []json.RawMessage `json:"preferences"`
}

// savedFeedsPref covers both the v1 (saved/pinned) and v2 (items)
// shapes of the saved-feeds preference.
type savedFeedsPref struct {
	Type   string   `json:"$type"`
	Saved  []string `json:"saved,omitempty"`
	Pinned []string `json:"pinned,omitempty"`
	Items  []struct {
		Value string `json:"value"`
	} `json:"items,omitempty"`
}

type generatorsResponse struct {
	Feeds []generatorView `json:"feeds"`
}

// Write-path records.

type likeRecord struct {
	Type      string    `json:"$type"`
	Subject   strongRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

type repostRecord struct {
	Type      string    `json:"$type"`
	Subject   strongRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

type followRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"` // DID
	CreatedAt string `json:"createdAt"`
}

type blockRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"` // DID
	CreatedAt string `json:"createdAt"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
