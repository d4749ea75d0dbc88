package usercache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmdqr/FastSM/internal/model"
)

func user(id, acct string) *model.User {
	return &model.User{ID: id, Acct: acct, Username: acct, Platform: "mastodon"}
}

func TestAddUserIdempotent(t *testing.T) {
	c := New()

	c.AddUser(user("1", "alice@example.social"))
	c.AddUser(user("2", "bob@example.social"))
	c.AddUser(user("1", "alice@example.social"))

	assert.Equal(t, 2, c.Len(), "re-adding an existing id must not grow the cache")
	assert.Equal(t, "1", c.Users()[0].ID, "most recent insertion moves to the front")
}

func TestAddUserLatestSnapshotWins(t *testing.T) {
	c := New()

	c.AddUser(&model.User{ID: "1", DisplayName: "old"})
	c.AddUser(&model.User{ID: "1", DisplayName: "new"})

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "new", c.Users()[0].DisplayName)
}

func TestEvictionAtCap(t *testing.T) {
	c := New()

	for i := 0; i < DefaultMaxSize+1; i++ {
		c.AddUser(user(fmt.Sprintf("%d", i), fmt.Sprintf("u%d", i)))
	}

	assert.Equal(t, DefaultMaxSize, c.Len())
	assert.Nil(t, c.LookupByID("0"), "least-recently-seen entry is evicted")
	assert.NotNil(t, c.LookupByID("1"))
}

func TestLookupByIDRecordsUnknown(t *testing.T) {
	c := New()

	assert.Nil(t, c.LookupByID("missing"))
	assert.Nil(t, c.LookupByID("missing"), "repeated misses do not duplicate")
	assert.Equal(t, []string{"missing"}, c.UnknownIDs())

	c.AddUser(user("missing", "found"))
	assert.Empty(t, c.UnknownIDs(), "adding the user clears its unknown marker")
}

func TestLookupByName(t *testing.T) {
	c := New()
	c.AddUser(user("1", "Alice@Example.Social"))

	assert.NotNil(t, c.LookupByName("@alice@example.social", nil), "strips @ and case-folds")
	assert.NotNil(t, c.LookupByName("alice", nil), "matches the local part")
	assert.Nil(t, c.LookupByName("carol", nil))
}

func TestLookupByNameRecovery(t *testing.T) {
	c := New()

	var asked string
	recovered := c.LookupByName("@Carol", func(name string) *model.User {
		asked = name
		return user("9", "carol@example.social")
	})

	require.NotNil(t, recovered)
	assert.Equal(t, "carol", asked, "callback receives the normalized name")
	assert.NotNil(t, c.LookupByID("9"), "recovered user is inserted into the cache")

	// Callback returning nil stays a miss.
	assert.Nil(t, c.LookupByName("dave", func(string) *model.User { return nil }))
}

func TestClear(t *testing.T) {
	c := New()
	c.AddUser(user("1", "a"))
	c.LookupByID("x")

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.UnknownIDs())
}
