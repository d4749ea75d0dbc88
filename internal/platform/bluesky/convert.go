package bluesky

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"

	"github.com/hmdqr/FastSM/internal/model"
)

// PlatformName identifies this adapter in universal records.
const PlatformName = "bluesky"

// repostIDSuffix joins the reposted uri and the reposter DID into a
// synthetic id, so the same post reposted by two accounts yields two
// distinct timeline items.
const repostIDSuffix = "#repost-by-"

// Conversion from wire views to universal records. These functions are
// pure: no network calls, no cache writes. They must accept any
// payload the server could produce, including empty objects, and fill
// typed defaults for whatever is missing.

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now().UTC()
}

// rkeyFromURI extracts the record key from an at:// uri.
func rkeyFromURI(uri string) string {
	if aturi, err := syntax.ParseATURI(uri); err == nil {
		if rkey := aturi.RecordKey().String(); rkey != "" {
			return rkey
		}
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// webURL builds the public bsky.app link for a post.
func webURL(handle, postURI string) string {
	if handle == "" || postURI == "" {
		return ""
	}
	return "https://bsky.app/profile/" + handle + "/post/" + rkeyFromURI(postURI)
}

func profileToUser(p *profileView) *model.User {
	if p == nil {
		return nil
	}
	username := p.Handle
	if i := strings.Index(p.Handle, "."); i > 0 {
		username = p.Handle[:i]
	}
	displayName := p.DisplayName
	if displayName == "" {
		displayName = p.Handle
	}
	return &model.User{
		ID:             p.DID,
		Acct:           p.Handle,
		Username:       username,
		DisplayName:    displayName,
		Note:           p.Description,
		Avatar:         p.Avatar,
		Header:         p.Banner,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowsCount,
		StatusesCount:  p.PostsCount,
		URL:            "https://bsky.app/profile/" + p.Handle,
		Platform:       PlatformName,
		PlatformData:   p,
	}
}

// placeholderUser stands in when the server omits an author. It keeps
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

func mediaFromEmbed(e *embedView) []model.Media {
	if e == nil {
		return nil
	}
	switch {
	case strings.Contains(e.Type, "embed.images"):
		media := make([]model.Media, 0, len(e.Images))
		for _, img := range e.Images {
			media = append(media, model.Media{
				ID:          img.Fullsize,
				Type:        "image",
				URL:         img.Fullsize,
				PreviewURL:  img.Thumb,
				Description: img.Alt,
			})
		}
		return media
	case strings.Contains(e.Type, "embed.video"):
		return []model.Media{{
			ID:          e.CID,
			Type:        "video",
			URL:         e.Playlist,
			PreviewURL:  e.Thumbnail,
			Description: e.Alt,
		}}
	case strings.Contains(e.Type, "embed.recordWithMedia"):
		return mediaFromEmbed(e.Media)
	}
	return nil
}

// quoteFromEmbed extracts the quoted post from a record or
// recordWithMedia embed, if the embed carries one.
func quoteFromEmbed(e *embedView) *model.Status {
	if e == nil || e.Record == nil {
		return nil
	}
	vr := e.Record
	if vr.Record != nil {
		// recordWithMedia nests the quoted view one level down.
		vr = vr.Record
	}
	if vr.URI == "" {
		return nil
	}
	account := profileToUser(vr.Author)
	if account == nil {
		account = placeholderUser()
	}
	st := &model.Status{
		ID:              vr.URI,
		Account:         account,
		FavouritesCount: vr.LikeCount,
		BoostsCount:     vr.RepostCount,
		RepliesCount:    vr.ReplyCount,
		CreatedAt:       parseTime(vr.IndexedAt),
		Platform:        PlatformName,
		PlatformData:    vr,
	}
	if vr.Value != nil {
		st.Content = vr.Value.Text
		st.Text = vr.Value.Text
		if vr.Value.CreatedAt != "" {
			st.CreatedAt = parseTime(vr.Value.CreatedAt)
		}
	}
	if vr.Author != nil {
		st.URL = webURL(vr.Author.Handle, vr.URI)
	}
	return st
}

func mentionsFromFacets(facets []facet) []model.Mention {
	var mentions []model.Mention
	for _, f := range facets {
		for _, feat := range f.Features {
			if feat.Type != typeFacetMention || feat.DID == "" {
				continue
			}
			mentions = append(mentions, model.Mention{ID: feat.DID})
		}
	}
	return mentions
}

func mergeLabels(viewLabels []label, self *selfLabels) []string {
	var out []string
	for _, l := range viewLabels {
		if l.Val != "" {
			out = append(out, l.Val)
		}
	}
	if self != nil {
		for _, l := range self.Values {
			if l.Val != "" {
				out = append(out, l.Val)
			}
		}
	}
	return out
}

func postViewToStatus(p *postView) *model.Status {
	if p == nil {
		return nil
	}
	account := profileToUser(p.Author)
	if account == nil {
		account = placeholderUser()
	}
	st := &model.Status{
		ID:              p.URI,
		Account:         account,
		CreatedAt:       parseTime(p.IndexedAt),
		FavouritesCount: p.LikeCount,
		BoostsCount:     p.RepostCount,
		RepliesCount:    p.ReplyCount,
		Media:           mediaFromEmbed(p.Embed),
		Quote:           quoteFromEmbed(p.Embed),
		Platform:        PlatformName,
		PlatformData:    p,
	}
	if p.Record != nil {
		st.Content = p.Record.Text
		st.Text = p.Record.Text
		st.Mentions = mentionsFromFacets(p.Record.Facets)
		if p.Record.CreatedAt != "" {
			st.CreatedAt = parseTime(p.Record.CreatedAt)
		}
		if p.Record.Reply != nil {
			st.InReplyToID = p.Record.Reply.Parent.URI
		}
	}
	st.Labels = mergeLabels(p.Labels, recordLabels(p.Record))
	if p.Author != nil {
		st.URL = webURL(p.Author.Handle, p.URI)
	}
	if p.Viewer != nil {
		st.Favourited = p.Viewer.Like != ""
		st.Boosted = p.Viewer.Repost != ""
	}
	return st
}

func recordLabels(r *postRecord) *selfLabels {
	if r == nil {
		return nil
	}
	return r.Labels
}

// feedItemToStatus converts one timeline entry. A repost wrapper
// becomes a synthetic status attributed to the reposter, carrying the
// reposted post in Reblog and no content of its own.
func feedItemToStatus(item *feedViewPost) *model.Status {
	if item == nil || item.Post == nil {
		return nil
	}
	inner := postViewToStatus(item.Post)
	if item.Reason == nil || !strings.Contains(item.Reason.Type, "reasonRepost") {
		return inner
	}
	reposter := profileToUser(item.Reason.By)
	if reposter == nil {
		reposter = placeholderUser()
	}
	return &model.Status{
		ID:        item.Post.URI + repostIDSuffix + reposter.ID,
		Account:   reposter,
		Reblog:    inner,
		CreatedAt: parseTime(item.Reason.IndexedAt),
		Platform:  PlatformName,
	}
}

// notificationReason maps an AT-Proto notification reason onto the
// universal notification types. Reply and quote notifications surface
// as mentions; unrecognized reasons pass through verbatim.
func notificationReason(reason string) string {
	switch reason {
	case "like":
		return model.NotificationFavourite
	case "repost":
		return model.NotificationReblog
	case "follow":
		return model.NotificationFollow
	case "mention", "reply", "quote":
		return model.NotificationMention
	}
	return reason
}

func notificationToUniversal(n *notificationView) *model.Notification {
	if n == nil {
		return nil
	}
	account := profileToUser(n.Author)
	if account == nil {
		account = placeholderUser()
	}
	out := &model.Notification{
		ID:           n.URI,
		Type:         notificationReason(n.Reason),
		Account:      account,
		CreatedAt:    parseTime(n.IndexedAt),
		Platform:     PlatformName,
		PlatformData: n,
	}
	// The notification record carries the triggering post for
	// mention-like reasons; hydrate a minimal status from it so the
	// notification is renderable without another fetch.
	if out.Type == model.NotificationMention && len(n.Record) > 0 {
		var rec postRecord
		if err := json.Unmarshal(n.Record, &rec); err == nil && rec.Text != "" {
			st := &model.Status{
				ID:        n.URI,
				Account:   account,
				Content:   rec.Text,
				Text:      rec.Text,
				CreatedAt: out.CreatedAt,
				Mentions:  mentionsFromFacets(rec.Facets),
				Platform:  PlatformName,
			}
			if rec.CreatedAt != "" {
				st.CreatedAt = parseTime(rec.CreatedAt)
			}
			if rec.Reply != nil {
				st.InReplyToID = rec.Reply.Parent.URI
			}
			out.Status = st
		}
	}
	return out
}

func generatorToFeed(g *generatorView) model.Feed {
	f := model.Feed{
		ID:          g.URI,
		Name:        g.DisplayName,
		Description: g.Description,
	}
	if g.Creator != nil {
		f.Creator = g.Creator.Handle
	}
	return f
}
