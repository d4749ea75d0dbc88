package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionableID(t *testing.T) {
	tests := []struct {
		name     string
		status   *Status
		expected string
	}{
		{
			name:     "plain status uses its own id",
			status:   &Status{ID: "123"},
			expected: "123",
		},
		{
			name:     "re-keyed mention uses the original id",
			status:   &Status{ID: "N123", OriginalID: "S456"},
			expected: "S456",
		},
		{
			name:     "boost wrapper delegates to the boosted status",
			status:   &Status{ID: "at://x#repost-by-y", Reblog: &Status{ID: "at://orig"}},
			expected: "at://orig",
		},
		{
			name: "nested wrapper resolves through the chain",
			status: &Status{
				ID:     "wrap",
				Reblog: &Status{ID: "N1", OriginalID: "S1"},
			},
			expected: "S1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.ActionableID())
		})
	}
}

func TestUserIdentity(t *testing.T) {
	a := &User{ID: "did:plc:abc", Platform: "bluesky", Acct: "alice.bsky.social"}
	b := &User{ID: "did:plc:abc", Platform: "bluesky", Acct: "renamed.bsky.social"}
	c := &User{ID: "did:plc:abc", Platform: "mastodon"}

	assert.True(t, a.Same(b), "same id and platform are the same user")
	assert.False(t, a.Same(c), "same id on a different platform is a different user")
	assert.False(t, a.Same(nil))
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestMentionsUser(t *testing.T) {
	me := &User{ID: "42", Acct: "me@example.social"}

	byID := &Status{Mentions: []Mention{{ID: "42", Acct: "other"}}}
	byAcct := &Status{Mentions: []Mention{{Acct: "me@example.social"}}}
	neither := &Status{Mentions: []Mention{{ID: "7", Acct: "someone@else"}}}

	assert.True(t, byID.MentionsUser(me))
	assert.True(t, byAcct.MentionsUser(me))
	assert.False(t, neither.MentionsUser(me))
	assert.False(t, neither.MentionsUser(nil))
}
