package bluesky

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmdqr/FastSM/internal/model"
)

func samplePostView() *postView {
	return &postView{
		URI: "at://did:plc:alice/app.bsky.feed.post/3k1",
		CID: "bafyalice",
		Author: &profileView{
			DID:         "did:plc:alice",
			Handle:      "alice.bsky.social",
			DisplayName: "Alice",
		},
		Record: &postRecord{
			Text:      "hello world",
			CreatedAt: "2024-03-01T12:00:00Z",
		},
		LikeCount:   3,
		RepostCount: 2,
		ReplyCount:  1,
		IndexedAt:   "2024-03-01T12:00:05Z",
	}
}

func TestPostViewToStatus(t *testing.T) {
	st := postViewToStatus(samplePostView())
	require.NotNil(t, st)

	assert.Equal(t, "at://did:plc:alice/app.bsky.feed.post/3k1", st.ID)
	assert.Equal(t, "hello world", st.Text)
	assert.Equal(t, 3, st.FavouritesCount)
	assert.Equal(t, 2, st.BoostsCount)
	assert.Equal(t, 1, st.RepliesCount)
	assert.Equal(t, PlatformName, st.Platform)
	assert.Equal(t, "did:plc:alice", st.Account.ID)
	assert.Equal(t, "alice", st.Account.Username)
	assert.Equal(t, "https://bsky.app/profile/alice.bsky.social/post/3k1", st.URL)
	// Record createdAt wins over indexedAt.
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), st.CreatedAt)
}

func TestConversionTotality(t *testing.T) {
	// Empty payloads must convert without panicking.
	st := postViewToStatus(&postView{})
	require.NotNil(t, st)
	assert.Equal(t, "unknown", st.Account.ID)

	assert.Nil(t, postViewToStatus(nil))
	assert.Nil(t, feedItemToStatus(nil))
	assert.Nil(t, feedItemToStatus(&feedViewPost{}))
	assert.Nil(t, notificationToUniversal(nil))
	assert.Nil(t, profileToUser(nil))
	assert.Nil(t, quoteFromEmbed(nil))
	assert.Nil(t, mediaFromEmbed(nil))

	n := notificationToUniversal(&notificationView{})
	require.NotNil(t, n)
	assert.Equal(t, "unknown", n.Account.ID)
}

func TestRepostSynthesis(t *testing.T) {
	item := &feedViewPost{
		Post: samplePostView(),
		Reason: &reasonRepost{
			Type:      typeReasonRepost,
			By:        &profileView{DID: "did:plc:bob", Handle: "bob.bsky.social"},
			IndexedAt: "2024-03-02T08:00:00Z",
		},
	}

	st := feedItemToStatus(item)
	require.NotNil(t, st)

	assert.Equal(t, "at://did:plc:alice/app.bsky.feed.post/3k1#repost-by-did:plc:bob", st.ID)
	assert.Equal(t, "did:plc:bob", st.Account.ID)
	assert.Empty(t, st.Content)
	assert.True(t, st.IsReblog())
	require.NotNil(t, st.Reblog)
	assert.Equal(t, "at://did:plc:alice/app.bsky.feed.post/3k1", st.Reblog.ID)
	// Engagement must target the reposted post, never the wrapper.
	assert.Equal(t, "at://did:plc:alice/app.bsky.feed.post/3k1", st.ActionableID())
	// The wrapper is dated by the repost, not the original post.
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), st.CreatedAt)
}

func TestRepostWithMissingReposter(t *testing.T) {
	item := &feedViewPost{
		Post:   samplePostView(),
		Reason: &reasonRepost{Type: typeReasonRepost},
	}

	st := feedItemToStatus(item)
	require.NotNil(t, st)
	assert.Equal(t, "unknown", st.Account.ID)
	assert.True(t, st.IsReblog())
}

func TestNonRepostReasonIgnored(t *testing.T) {
	item := &feedViewPost{
		Post:   samplePostView(),
		Reason: &reasonRepost{Type: "app.bsky.feed.defs#reasonPin"},
	}

	st := feedItemToStatus(item)
	require.NotNil(t, st)
	assert.False(t, st.IsReblog())
	assert.Equal(t, "did:plc:alice", st.Account.ID)
}

func TestEmbedDispatch(t *testing.T) {
	t.Run("images", func(t *testing.T) {
		media := mediaFromEmbed(&embedView{
			Type: typeEmbedImages,
			Images: []imageView{
				{Thumb: "https://cdn/thumb1", Fullsize: "https://cdn/full1", Alt: "a cat"},
				{Thumb: "https://cdn/thumb2", Fullsize: "https://cdn/full2"},
			},
		})
		require.Len(t, media, 2)
		assert.Equal(t, "image", media[0].Type)
		assert.Equal(t, "https://cdn/full1", media[0].URL)
		assert.Equal(t, "https://cdn/thumb1", media[0].PreviewURL)
		assert.Equal(t, "a cat", media[0].Description)
	})

	t.Run("video", func(t *testing.T) {
		media := mediaFromEmbed(&embedView{
			Type:      typeEmbedVideo,
			CID:       "bafyvid",
			Playlist:  "https://cdn/playlist.m3u8",
			Thumbnail: "https://cdn/poster",
		})
		require.Len(t, media, 1)
		assert.Equal(t, "video", media[0].Type)
		assert.Equal(t, "https://cdn/playlist.m3u8", media[0].URL)
	})

	t.Run("record becomes quote", func(t *testing.T) {
		quote := quoteFromEmbed(&embedView{
			Type: typeEmbedRecord,
			Record: &embedRecordView{
				URI:    "at://did:plc:carol/app.bsky.feed.post/3q1",
				CID:    "bafycarol",
				Author: &profileView{DID: "did:plc:carol", Handle: "carol.bsky.social"},
				Value:  &postRecord{Text: "quoted text", CreatedAt: "2024-02-01T00:00:00Z"},
			},
		})
		require.NotNil(t, quote)
		assert.Equal(t, "at://did:plc:carol/app.bsky.feed.post/3q1", quote.ID)
		assert.Equal(t, "quoted text", quote.Text)
		assert.Equal(t, "did:plc:carol", quote.Account.ID)
	})

	t.Run("recordWithMedia yields both", func(t *testing.T) {
		e := &embedView{
			Type: typeEmbedRecordWith,
			Record: &embedRecordView{
				Record: &embedRecordView{
					URI:    "at://did:plc:carol/app.bsky.feed.post/3q2",
					Author: &profileView{DID: "did:plc:carol", Handle: "carol.bsky.social"},
					Value:  &postRecord{Text: "inner quote"},
				},
			},
			Media: &embedView{
				Type:   typeEmbedImages,
				Images: []imageView{{Fullsize: "https://cdn/full"}},
			},
		}
		media := mediaFromEmbed(e)
		require.Len(t, media, 1)
		quote := quoteFromEmbed(e)
		require.NotNil(t, quote)
		assert.Equal(t, "inner quote", quote.Text)
	})
}

func TestLabelsMerged(t *testing.T) {
	p := samplePostView()
	p.Labels = []label{{Val: "spam"}}
	p.Record.Labels = &selfLabels{Values: []label{{Val: "graphic-media"}}}

	st := postViewToStatus(p)
	require.NotNil(t, st)
	assert.Equal(t, []string{"spam", "graphic-media"}, st.Labels)
}

func TestViewerStateFlags(t *testing.T) {
	p := samplePostView()
	p.Viewer = &postViewer{Like: "at://did:plc:me/app.bsky.feed.like/3l1"}

	st := postViewToStatus(p)
	require.NotNil(t, st)
	assert.True(t, st.Favourited)
	assert.False(t, st.Boosted)
}

func TestNotificationReasonMapping(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"like", model.NotificationFavourite},
		{"repost", model.NotificationReblog},
		{"follow", model.NotificationFollow},
		{"mention", model.NotificationMention},
		{"reply", model.NotificationMention},
		{"quote", model.NotificationMention},
		{"starterpack-joined", "starterpack-joined"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, notificationReason(tt.reason), tt.reason)
	}
}

func TestMentionNotificationHydratesFromRecord(t *testing.T) {
	n := notificationToUniversal(&notificationView{
		URI:       "at://did:plc:bob/app.bsky.feed.post/3m1",
		Author:    &profileView{DID: "did:plc:bob", Handle: "bob.bsky.social"},
		Reason:    "mention",
		Record:    []byte(`{"text":"hey @me.bsky.social","createdAt":"2024-03-01T09:00:00Z"}`),
		IndexedAt: "2024-03-01T09:00:02Z",
	})
	require.NotNil(t, n)
	assert.Equal(t, model.NotificationMention, n.Type)
	require.NotNil(t, n.Status)
	assert.Equal(t, "hey @me.bsky.social", n.Status.Text)
	assert.Equal(t, "at://did:plc:bob/app.bsky.feed.post/3m1", n.Status.ID)
}

func TestProfileToUser(t *testing.T) {
	u := profileToUser(&profileView{DID: "did:plc:alice", Handle: "alice.bsky.social"})
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice.bsky.social", u.Acct)
	// Display name falls back to the handle.
	assert.Equal(t, "alice.bsky.social", u.DisplayName)
	assert.Equal(t, "https://bsky.app/profile/alice.bsky.social", u.URL)
}

func TestRkeyFromURI(t *testing.T) {
	assert.Equal(t, "3k1", rkeyFromURI("at://did:plc:alice/app.bsky.feed.post/3k1"))
	assert.Equal(t, "abc", rkeyFromURI("weird/path/abc"))
	assert.Equal(t, "plain", rkeyFromURI("plain"))
}
