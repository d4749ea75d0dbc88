package usercache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmdqr/FastSM/internal/model"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "usercache.db"))
	require.NoError(t, err)
	defer store.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New()
	c.AddUser(&model.User{ID: "1", Acct: "old@example.social", Username: "old", Platform: "mastodon"})
	c.AddUser(&model.User{
		ID: "2", Acct: "recent@example.social", Username: "recent",
		DisplayName: "Recent", Platform: "mastodon",
		FollowersCount: 5, Bot: true, CreatedAt: created,
	})

	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	users := loaded.Users()
	assert.Equal(t, "2", users[0].ID, "recency order survives the round trip")
	assert.Equal(t, "1", users[1].ID)
	assert.Equal(t, "Recent", users[0].DisplayName)
	assert.Equal(t, 5, users[0].FollowersCount)
	assert.True(t, users[0].Bot)
	assert.True(t, created.Equal(users[0].CreatedAt))
}

func TestStoreSaveReplacesSnapshot(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "usercache.db"))
	require.NoError(t, err)
	defer store.Close()

	first := New()
	first.AddUser(&model.User{ID: "1", Acct: "a", Username: "a"})
	require.NoError(t, store.Save(first))

	second := New()
	second.AddUser(&model.User{ID: "2", Acct: "b", Username: "b"})
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Nil(t, loaded.LookupByID("1"), "old snapshot rows are gone")
	assert.NotNil(t, loaded.LookupByID("2"))
}

func TestStoreLoadEmpty(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "usercache.db"))
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}
