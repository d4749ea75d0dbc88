package bluesky

import "sync"

// Timeline keys for the cursor store. Parameterized timelines (user,
// feed) append the identifier to the base key.
const (
	cursorHome          = "home"
	cursorMentions      = "mentions"
	cursorNotifications = "notifications"
	cursorFavourites    = "favourites"
	cursorSearch        = "search:"
	cursorUser          = "user:"
	cursorFeed          = "feed:"
)

// cursorStore remembers the opaque continuation cursor returned by the
// last fetch of each logical timeline. Callers page a given timeline
// sequentially; the lock only protects the map against concurrent use
// across different timelines.
type cursorStore struct {
	mu      sync.Mutex
	cursors map[string]string
}

func newCursorStore() *cursorStore {
	return &cursorStore{cursors: make(map[string]string)}
}

func (s *cursorStore) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[key]
}

// Set records the cursor returned by the most recent call. The last
// call always wins; an empty cursor means the timeline is exhausted
// and clears the stored value.
func (s *cursorStore) Set(key, cursor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor == "" {
		delete(s.cursors, key)
		return
	}
	s.cursors[key] = cursor
}
