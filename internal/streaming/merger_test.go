package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/timeline"
	"github.com/hmdqr/FastSM/internal/usercache"
)

var me = &model.User{ID: "did:plc:me", Acct: "me.bsky.social", Platform: "bluesky"}

func newStatus(id, authorID string) *model.Status {
	return &model.Status{
		ID:       id,
		Account:  &model.User{ID: authorID, Acct: authorID + ".example", Platform: "bluesky"},
		Content:  "status " + id,
		Platform: "bluesky",
	}
}

func TestStatusRouting(t *testing.T) {
	home := timeline.New(timeline.KindHome, "Home")
	sent := timeline.New(timeline.KindSent, "Sent")
	mentions := timeline.New(timeline.KindMentions, "Mentions")
	user := timeline.NewUser("Alice", "did:plc:alice")
	list := timeline.NewList("Friends", []string{"did:plc:alice"})

	m := NewMerger(me, nil)
	for _, b := range []*timeline.Buffer{home, sent, mentions, user, list} {
		m.AddBuffer(b)
	}

	// A status from Alice lands in home, her user buffer, and the list
	// that has her as a member.
	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s1", "did:plc:alice")})
	assert.Equal(t, 1, home.Len())
	assert.Equal(t, 1, user.Len())
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, 0, sent.Len())
	assert.Equal(t, 0, mentions.Len())

	// My own status also lands in sent.
	mine := newStatus("s2", "did:plc:me")
	mine.Account.Platform = "bluesky"
	m.Handle(&Event{Kind: EventNewStatus, Status: mine})
	assert.Equal(t, 1, sent.Len())

	// A status mentioning me also lands in mentions.
	mentioning := newStatus("s3", "did:plc:bob")
	mentioning.Mentions = []model.Mention{{ID: "did:plc:me"}}
	m.Handle(&Event{Kind: EventNewStatus, Status: mentioning})
	assert.Equal(t, 1, mentions.Len())
}

func TestMentionNotificationAppearsExactlyOnce(t *testing.T) {
	notifications := timeline.New(timeline.KindNotifications, "Notifications")
	mentions := timeline.New(timeline.KindMentions, "Mentions")
	home := timeline.New(timeline.KindHome, "Home")

	m := NewMerger(me, nil)
	m.AddBuffer(notifications)
	m.AddBuffer(mentions)
	m.AddBuffer(home)

	ev := &Event{
		Kind: EventNewNotification,
		Notification: &model.Notification{
			ID:      "n1",
			Type:    model.NotificationMention,
			Account: &model.User{ID: "did:plc:bob"},
			Status:  newStatus("s9", "did:plc:bob"),
		},
	}
	m.Handle(ev)
	// A replay is a no-op.
	m.Handle(ev)

	assert.Equal(t, 1, notifications.Len())
	require.Equal(t, 1, mentions.Len())
	assert.Equal(t, 0, home.Len())

	// The mention copy is keyed by notification id with the status id
	// preserved for engagement.
	st, ok := mentions.Items()[0].(*model.Status)
	require.True(t, ok)
	assert.Equal(t, "n1", st.ID)
	assert.Equal(t, "s9", st.OriginalID)
	assert.Equal(t, "s9", st.ActionableID())

	// The event's own status was not mutated by the re-keying.
	assert.Equal(t, "s9", ev.Notification.Status.ID)
}

func TestNonMentionNotificationSkipsMentions(t *testing.T) {
	notifications := timeline.New(timeline.KindNotifications, "Notifications")
	mentions := timeline.New(timeline.KindMentions, "Mentions")

	m := NewMerger(me, nil)
	m.AddBuffer(notifications)
	m.AddBuffer(mentions)

	m.Handle(&Event{
		Kind: EventNewNotification,
		Notification: &model.Notification{
			ID:      "n2",
			Type:    model.NotificationFavourite,
			Account: &model.User{ID: "did:plc:bob"},
		},
	})
	assert.Equal(t, 1, notifications.Len())
	assert.Equal(t, 0, mentions.Len())
}

func TestDeleteRemovesEverywhereAndKeepsIndex(t *testing.T) {
	home := timeline.New(timeline.KindHome, "Home")
	mentions := timeline.New(timeline.KindMentions, "Mentions")

	m := NewMerger(me, nil)
	m.AddBuffer(home)
	m.AddBuffer(mentions)

	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s1", "did:plc:alice")})
	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s2", "did:plc:alice")})
	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s3", "did:plc:alice")})
	home.SetIndex(2)

	// A re-keyed mention copy of s2 sits in the mentions buffer.
	m.Handle(&Event{
		Kind: EventNewNotification,
		Notification: &model.Notification{
			ID:      "n1",
			Type:    model.NotificationMention,
			Account: &model.User{ID: "did:plc:alice"},
			Status:  newStatus("s2", "did:plc:alice"),
		},
	})
	require.Equal(t, 1, mentions.Len())

	m.Handle(&Event{Kind: EventDeleteStatus, StatusID: "s2"})

	assert.Equal(t, 2, home.Len())
	assert.False(t, home.Contains("s2"))
	// The selection followed the item it pointed at.
	assert.Equal(t, 1, home.Index())
	// The mention copy went too, found through its original id.
	assert.Equal(t, 0, mentions.Len())
}

func TestEditReplacesInPlace(t *testing.T) {
	home := timeline.New(timeline.KindHome, "Home")
	m := NewMerger(me, nil)
	m.AddBuffer(home)

	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s1", "did:plc:alice")})
	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s2", "did:plc:alice")})

	edited := newStatus("s1", "did:plc:alice")
	edited.Content = "edited"
	m.Handle(&Event{Kind: EventEditStatus, Status: edited})

	items := home.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "edited", items[0].(*model.Status).Content)
}

func TestMergerFeedsUserCache(t *testing.T) {
	cache := usercache.New()
	m := NewMerger(me, cache)
	m.AddBuffer(timeline.New(timeline.KindHome, "Home"))

	m.Handle(&Event{Kind: EventNewStatus, Status: newStatus("s1", "did:plc:alice")})
	assert.NotNil(t, cache.LookupByID("did:plc:alice"))
}
