// Package usercache holds the per-account registry of users seen while
// browsing, used for identity resolution without extra network calls.
package usercache

import (
	"strings"
	"sync"

	"github.com/hmdqr/FastSM/internal/model"
)

// DefaultMaxSize caps the number of cached users per account.
const DefaultMaxSize = 500

// RecoverFunc is a caller-supplied fallback for LookupByName. It is
// invoked only on a cache miss and may return nil for "not found".
type RecoverFunc func(name string) *model.User

// Cache is a bounded, recency-ordered user registry. The most recently
// seen user sits at the front; eviction drops from the tail. Identities
// that were requested but never seen are tracked in a separate
// unknown-id set for deferred resolution.
type Cache struct {
	mu      sync.Mutex
	users   []*model.User
	unknown map[string]struct{}
	max     int
}

// New returns a cache with the default size cap.
func New() *Cache {
	return NewWithSize(DefaultMaxSize)
}

// NewWithSize returns a cache capped at max entries.
func NewWithSize(max int) *Cache {
	if max <= 0 {
		max = DefaultMaxSize
	}
	return &Cache{
		unknown: make(map[string]struct{}),
		max:     max,
	}
}

// AddUser inserts or refreshes a user. Insertion is idempotent per id:
// an already-present id moves to the front instead of duplicating.
func (c *Cache) AddUser(u *model.User) {
	if u == nil || u.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.users {
		if existing.ID == u.ID {
			c.users = append(c.users[:i], c.users[i+1:]...)
			break
		}
	}
	c.users = append([]*model.User{u}, c.users...)
	if len(c.users) > c.max {
		c.users = c.users[:c.max]
	}
	delete(c.unknown, u.ID)
}

// AddUsersFromStatus caches every user reachable from a status: the
// author, the boosted author and the quoted author.
func (c *Cache) AddUsersFromStatus(s *model.Status) {
	if s == nil {
		return
	}
	c.AddUser(s.Account)
	if s.Reblog != nil {
		c.AddUser(s.Reblog.Account)
	}
	if s.Quote != nil {
		c.AddUser(s.Quote.Account)
	}
}

// AddUsersFromNotification caches the triggering account and any users
// reachable from the associated status.
func (c *Cache) AddUsersFromNotification(n *model.Notification) {
	if n == nil {
		return
	}
	c.AddUser(n.Account)
	if n.Status != nil {
		c.AddUsersFromStatus(n.Status)
	}
}

// LookupByID scans the recency-ordered sequence for an id. On a miss
// the id is recorded in the unknown set and nil is returned; no network
// recovery is attempted here.
func (c *Cache) LookupByID(id string) *model.User {
	if id == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range c.users {
		if u.ID == id {
			return u
		}
	}
	c.unknown[id] = struct{}{}
	return nil
}

// LookupByName resolves a handle to a cached user. The input is
// normalized (leading @ stripped, case-folded) and matched against the
// full qualified handle or its local part. On a miss, and only if a
// recovery callback is supplied, the callback runs and a non-nil result
// is inserted before being returned.
func (c *Cache) LookupByName(name string, recover RecoverFunc) *model.User {
	name = strings.ToLower(strings.TrimPrefix(name, "@"))
	if name == "" {
		return nil
	}

	c.mu.Lock()
	for _, u := range c.users {
		acct := strings.ToLower(u.Acct)
		if acct == name || localPart(acct) == name {
			c.mu.Unlock()
			return u
		}
	}
	c.mu.Unlock()

	if recover == nil {
		return nil
	}
	u := recover(name)
	if u == nil {
		return nil
	}
	c.AddUser(u)
	return u
}

func localPart(acct string) string {
	if i := strings.IndexByte(acct, '@'); i >= 0 {
		return acct[:i]
	}
	return acct
}

// Users returns a snapshot of the cached users, most recent first.
func (c *Cache) Users() []*model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.User, len(c.users))
	copy(out, c.users)
	return out
}

// UnknownIDs returns a snapshot of ids that missed LookupByID and still
// await deferred resolution.
func (c *Cache) UnknownIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.unknown))
	for id := range c.unknown {
		out = append(out, id)
	}
	return out
}

// ClearUnknown drops the deferred-lookup set, typically after a batch
// resolution pass.
func (c *Cache) ClearUnknown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unknown = make(map[string]struct{})
}

// Len reports the number of cached users.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

// Clear empties the cache and the unknown set.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = nil
	c.unknown = make(map[string]struct{})
}
