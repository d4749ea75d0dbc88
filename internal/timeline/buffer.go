// Package timeline holds the in-memory item buffers live updates are
// merged into. A buffer owns its items; callers get snapshots.
package timeline

import (
	"sync"

	"github.com/hmdqr/FastSM/internal/model"
)

// Buffer kinds. The merger routes events by kind plus the buffer's
// routing metadata.
const (
	KindHome          = "home"
	KindMentions      = "mentions"
	KindNotifications = "notifications"
	KindSent          = "sent"
	KindUser          = "user"
	KindList          = "list"
	KindConversations = "conversations"
	KindFavourites    = "favourites"
	KindSearch        = "search"
)

// Buffer is one timeline's item store plus the selection index a UI
// layer tracks through it. Items are kept newest-last for Append and
// newest-first callers use Prepend; the buffer itself imposes no
// ordering beyond insertion.
type Buffer struct {
	mu    sync.Mutex
	items []model.Item
	ids   map[string]int // item id -> position
	index int

	kind   string
	name   string
	userID string
	// members is the account-id set for list buffers; the merger routes
	// a status here when its author is a member.
	members map[string]struct{}
}

// New creates a buffer of the given kind. Name is display-only.
func New(kind, name string) *Buffer {
	return &Buffer{
		kind: kind,
		name: name,
		ids:  make(map[string]int),
	}
}

// NewUser creates a buffer for one author's statuses.
func NewUser(name, userID string) *Buffer {
	b := New(KindUser, name)
	b.userID = userID
	return b
}

// NewList creates a list buffer routing statuses by author membership.
func NewList(name string, memberIDs []string) *Buffer {
	b := New(KindList, name)
	b.members = make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		b.members[id] = struct{}{}
	}
	return b
}

func (b *Buffer) Kind() string { return b.kind }
func (b *Buffer) Name() string { return b.name }

// UserID returns the author this buffer tracks; empty unless KindUser.
func (b *Buffer) UserID() string { return b.userID }

// HasMember reports list membership for an account id.
func (b *Buffer) HasMember(id string) bool {
	_, ok := b.members[id]
	return ok
}

// Append adds an item at the end unless an item with the same id is
// already present.
func (b *Buffer) Append(item model.Item) bool {
	if item == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.ids[item.ItemID()]; dup {
		return false
	}
	b.ids[item.ItemID()] = len(b.items)
	b.items = append(b.items, item)
	return true
}

// Prepend adds an item at the front unless already present. The
// selection index shifts with the insertion so it keeps pointing at
// the same item.
func (b *Buffer) Prepend(item model.Item) bool {
	if item == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.ids[item.ItemID()]; dup {
		return false
	}
	b.items = append([]model.Item{item}, b.items...)
	b.reindexLocked()
	if len(b.items) > 1 {
		b.index++
	}
	return true
}

// RemoveByID removes the item with the given id if present. The
// selection index shifts down when the removal happened at or before
// it, never below zero.
func (b *Buffer) RemoveByID(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.ids[id]
	if !ok {
		return false
	}
	b.items = append(b.items[:pos], b.items[pos+1:]...)
	b.reindexLocked()
	if pos <= b.index && b.index > 0 {
		b.index--
	}
	return true
}

// ReplaceByID swaps the item with the same id in place, preserving its
// position. Used for edit events.
func (b *Buffer) ReplaceByID(item model.Item) bool {
	if item == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.ids[item.ItemID()]
	if !ok {
		return false
	}
	b.items[pos] = item
	return true
}

// Contains reports whether an item with the given id is present.
func (b *Buffer) Contains(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ids[id]
	return ok
}

// Items returns a snapshot of the buffer's contents.
func (b *Buffer) Items() []model.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Item, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Index returns the current selection position.
func (b *Buffer) Index() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}

// SetIndex moves the selection, clamped to the buffer bounds.
func (b *Buffer) SetIndex(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if n := len(b.items); n > 0 && i >= n {
		i = n - 1
	}
	b.index = i
}

func (b *Buffer) reindexLocked() {
	clear(b.ids)
	for i, item := range b.items {
		b.ids[item.ItemID()] = i
	}
}
