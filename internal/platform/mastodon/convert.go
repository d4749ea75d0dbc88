package mastodon

import (
	"strings"
	"time"

	"github.com/hmdqr/FastSM/internal/model"
)

// PlatformName identifies this adapter in universal records.
const PlatformName = "mastodon"

// parseTime parses a Mastodon timestamp, falling back to the current
// time so a malformed payload never fails a conversion.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}

func accountToUser(a *apiAccount) *model.User {
	if a == nil {
		return nil
	}
	username := a.Username
	if username == "" {
		username = localPart(a.Acct)
	}
	u := &model.User{
		ID:             a.ID,
		Acct:           a.Acct,
		Username:       username,
		DisplayName:    a.DisplayName,
		Note:           a.Note,
		Avatar:         a.Avatar,
		Header:         a.Header,
		FollowersCount: a.FollowersCount,
		FollowingCount: a.FollowingCount,
		StatusesCount:  a.StatusesCount,
		URL:            a.URL,
		Bot:            a.Bot,
		Locked:         a.Locked,
		Platform:       PlatformName,
		PlatformData:   a,
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
	if a.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
			u.CreatedAt = t
		}
	}
	return u
}

// placeholderUser stands in when the server omits an account. It keeps
// downstream code total without inventing an identity.
func placeholderUser() *model.User {
	return &model.User{
		ID:          "unknown",
		Acct:        "unknown",
		Username:    "unknown",
		DisplayName: "unknown",
		Platform:    PlatformName,
	}
}

func localPart(acct string) string {
	if i := strings.IndexByte(acct, '@'); i >= 0 {
		return acct[:i]
	}
	return acct
}

func mediaToUniversal(m apiMedia) model.Media {
	return model.Media{
		ID:          m.ID,
		Type:        m.Type,
		URL:         m.URL,
		PreviewURL:  m.PreviewURL,
		Description: m.Description,
	}
}

func pollToUniversal(p *apiPoll) *model.Poll {
	if p == nil {
		return nil
	}
	poll := &model.Poll{
		ID:         p.ID,
		Expired:    p.Expired,
		Multiple:   p.Multiple,
		VotesCount: p.VotesCount,
	}
	if p.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, p.ExpiresAt); err == nil {
			poll.ExpiresAt = t
		}
	}
	for _, o := range p.Options {
		poll.Options = append(poll.Options, model.PollOption{
			Title:      o.Title,
			VotesCount: o.VotesCount,
		})
	}
	return poll
}

func statusToUniversal(s *apiStatus) *model.Status {
	if s == nil {
		return nil
	}
	account := accountToUser(s.Account)
	if account == nil {
		account = placeholderUser()
	}
	st := &model.Status{
		ID:              s.ID,
		Account:         account,
		Content:         s.Content,
		Text:            stripHTML(s.Content),
		CreatedAt:       parseTime(s.CreatedAt),
		FavouritesCount: s.FavouritesCount,
		BoostsCount:     s.ReblogsCount,
		RepliesCount:    s.RepliesCount,
		InReplyToID:     s.InReplyToID,
		Reblog:          statusToUniversal(s.Reblog),
		Quote:           statusToUniversal(s.Quote),
		URL:             s.URL,
		Visibility:      s.Visibility,
		SpoilerText:     s.SpoilerText,
		Poll:            pollToUniversal(s.Poll),
		Favourited:      s.Favourited,
		Boosted:         s.Reblogged,
		Platform:        PlatformName,
		PlatformData:    s,
	}
	for _, m := range s.Media {
		st.Media = append(st.Media, mediaToUniversal(m))
	}
	for _, m := range s.Mentions {
		st.Mentions = append(st.Mentions, model.Mention{
			ID:       m.ID,
			Acct:     m.Acct,
			Username: m.Username,
			URL:      m.URL,
		})
	}
	return st
}

func notificationToUniversal(n *apiNotification) *model.Notification {
	if n == nil {
		return nil
	}
	account := accountToUser(n.Account)
	if account == nil {
		account = placeholderUser()
	}
	return &model.Notification{
		ID:           n.ID,
		Type:         n.Type,
		Account:      account,
		CreatedAt:    parseTime(n.CreatedAt),
		Status:       statusToUniversal(n.Status),
		Platform:     PlatformName,
		PlatformData: n,
	}
}

func conversationToUniversal(c *apiConversation) *model.Conversation {
	if c == nil {
		return nil
	}
	conv := &model.Conversation{
		ID:         c.ID,
		Unread:     c.Unread,
		LastStatus: statusToUniversal(c.LastStatus),
	}
	for i := range c.Accounts {
		conv.Accounts = append(conv.Accounts, accountToUser(&c.Accounts[i]))
	}
	return conv
}

// stripHTML reduces status HTML to readable plain text: paragraph and
// line breaks become newlines, every other tag is dropped.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n\n",
	)
	s = replacer.Replace(s)

	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = strings.ReplaceAll(out, "&lt;", "<")
	out = strings.ReplaceAll(out, "&gt;", ">")
	out = strings.ReplaceAll(out, "&quot;", `"`)
	out = strings.ReplaceAll(out, "&#39;", "'")
	return strings.TrimSpace(out)
}
