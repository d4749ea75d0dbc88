package mastodon

// Wire types for the Mastodon REST API. Fields the conversion layer does
// not consume are omitted; unknown fields are ignored on decode. All
// parsing of these is total: missing or malformed values degrade to
// typed defaults, they never fail a conversion.

type apiAccount struct {
	ID             string `json:"id"`
	Acct           string `json:"acct"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Note           string `json:"note"`
	Avatar         string `json:"avatar"`
	Header         string `json:"header"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	StatusesCount  int    `json:"statuses_count"`
	CreatedAt      string `json:"created_at"`
	URL            string `json:"url"`
	Bot            bool   `json:"bot"`
	Locked         bool   `json:"locked"`
	Source         struct {
		Privacy string `json:"privacy"`
	} `json:"source"`
}

type apiMedia struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

type apiMention struct {
	ID       string `json:"id"`
	Acct     string `json:"acct"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

type apiPollOption struct {
	Title      string `json:"title"`
	VotesCount int    `json:"votes_count"`
}

type apiPoll struct {
	ID         string          `json:"id"`
	ExpiresAt  string          `json:"expires_at"`
	Expired    bool            `json:"expired"`
	Multiple   bool            `json:"multiple"`
	VotesCount int             `json:"votes_count"`
	Options    []apiPollOption `json:"options"`
}

type apiStatus struct {
	ID              string       `json:"id"`
	CreatedAt       string       `json:"created_at"`
	InReplyToID     string       `json:"in_reply_to_id"`
	Content         string       `json:"content"`
	Visibility      string       `json:"visibility"`
	SpoilerText     string       `json:"spoiler_text"`
	FavouritesCount int          `json:"favourites_count"`
	ReblogsCount    int          `json:"reblogs_count"`
	RepliesCount    int          `json:"replies_count"`
	Favourited      bool         `json:"favourited"`
	Reblogged       bool         `json:"reblogged"`
	Account         *apiAccount  `json:"account"`
	Reblog          *apiStatus   `json:"reblog"`
	Quote           *apiStatus   `json:"quote"`
	Media           []apiMedia   `json:"media_attachments"`
	Mentions        []apiMention `json:"mentions"`
	Poll            *apiPoll     `json:"poll"`
	URL             string       `json:"url"`
}

type apiNotification struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	CreatedAt string      `json:"created_at"`
	Account   *apiAccount `json:"account"`
	Status    *apiStatus  `json:"status"`
}

type apiContext struct {
	Ancestors   []apiStatus `json:"ancestors"`
	Descendants []apiStatus `json:"descendants"`
}

type apiList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type apiConversation struct {
	ID         string       `json:"id"`
	Unread     bool         `json:"unread"`
	Accounts   []apiAccount `json:"accounts"`
	LastStatus *apiStatus   `json:"last_status"`
}

type apiSearchResults struct {
	Accounts []apiAccount `json:"accounts"`
	Statuses []apiStatus  `json:"statuses"`
}

type apiInstance struct {
	Configuration struct {
		Statuses struct {
			MaxCharacters int `json:"max_characters"`
		} `json:"statuses"`
	} `json:"configuration"`
}

type apiError struct {
	Error string `json:"error"`
}
