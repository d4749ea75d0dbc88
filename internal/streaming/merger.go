package streaming

import (
	"sync"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/timeline"
	"github.com/hmdqr/FastSM/internal/usercache"
)

// Merger routes live events into the open timeline buffers. Routing
// is by buffer kind plus each buffer's metadata; buffer-level
// de-duplication makes delivery idempotent, so replayed events are
// harmless.
type Merger struct {
	mu      sync.RWMutex
	me      *model.User
	cache   *usercache.Cache
	buffers []*timeline.Buffer
}

// NewMerger creates a merger for one account. cache may be nil.
func NewMerger(me *model.User, cache *usercache.Cache) *Merger {
	return &Merger{me: me, cache: cache}
}

// AddBuffer registers a buffer for routing.
func (m *Merger) AddBuffer(b *timeline.Buffer) {
	if b == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers = append(m.buffers, b)
}

// RemoveBuffer unregisters a buffer.
func (m *Merger) RemoveBuffer(b *timeline.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, have := range m.buffers {
		if have == b {
			m.buffers = append(m.buffers[:i], m.buffers[i+1:]...)
			return
		}
	}
}

func (m *Merger) snapshot() []*timeline.Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*timeline.Buffer, len(m.buffers))
	copy(out, m.buffers)
	return out
}

// Handle dispatches one event.
func (m *Merger) Handle(ev *Event) {
	if ev == nil {
		return
	}
	switch ev.Kind {
	case EventNewStatus:
		m.handleStatus(ev.Status)
	case EventNewNotification:
		m.handleNotification(ev.Notification)
	case EventDeleteStatus:
		m.handleDelete(ev.StatusID)
	case EventEditStatus:
		m.handleEdit(ev.Status)
	}
}

func (m *Merger) handleStatus(st *model.Status) {
	if st == nil || st.Account == nil {
		return
	}
	if m.cache != nil {
		m.cache.AddUsersFromStatus(st)
	}
	for _, b := range m.snapshot() {
		switch b.Kind() {
		case timeline.KindHome:
			b.Append(st)
		case timeline.KindSent:
			if st.Account.Same(m.me) {
				b.Append(st)
			}
		case timeline.KindMentions:
			if st.MentionsUser(m.me) {
				b.Append(st)
			}
		case timeline.KindUser:
			if st.Account.ID == b.UserID() {
				b.Append(st)
			}
		case timeline.KindList:
			if b.HasMember(st.Account.ID) {
				b.Append(st)
			}
		}
	}
}

// handleNotification appends to notification buffers. A mention
// notification carrying its status also lands in mention buffers as a
// status re-keyed to the notification id, matching how the fetch path
// builds the mentions timeline; de-duplication keys on that id, so
// each mention appears exactly once however often it is delivered.
func (m *Merger) handleNotification(n *model.Notification) {
	if n == nil {
		return
	}
	if m.cache != nil {
		m.cache.AddUsersFromNotification(n)
	}

	var mention *model.Status
	if n.Type == model.NotificationMention && n.Status != nil {
		copied := *n.Status
		copied.OriginalID = copied.ID
		copied.ID = n.ID
		mention = &copied
	}

	for _, b := range m.snapshot() {
		switch b.Kind() {
		case timeline.KindNotifications:
			b.Append(n)
		case timeline.KindMentions:
			if mention != nil {
				b.Append(mention)
			}
		}
	}
}

// handleDelete removes the status everywhere it appears, including
// re-keyed mention copies, which are found through OriginalID.
func (m *Merger) handleDelete(id string) {
	if id == "" {
		return
	}
	for _, b := range m.snapshot() {
		b.RemoveByID(id)
		for _, item := range b.Items() {
			st, ok := item.(*model.Status)
			if ok && st.OriginalID == id {
				b.RemoveByID(st.ID)
			}
		}
	}
}

// handleEdit swaps the status in place wherever it appears.
func (m *Merger) handleEdit(st *model.Status) {
	if st == nil {
		return
	}
	if m.cache != nil {
		m.cache.AddUsersFromStatus(st)
	}
	for _, b := range m.snapshot() {
		b.ReplaceByID(st)
	}
}
