package sync

import (
	"sort"
	gosync "sync"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
)

// Roster is the ordered in-memory collection of one user's conversation
// summaries: most recent message first, stable on timestamp ties so entries
// do not jump around visually.
type Roster struct {
	mu      gosync.RWMutex
	entries []*entity.ConversationSummary
}

func NewRoster() *Roster {
	return &Roster{}
}

// Replace swaps in a full roster from an authoritative list fetch.
func (r *Roster) Replace(summaries []entity.ConversationSummary) {
	entries := make([]*entity.ConversationSummary, 0, len(summaries))
	for i := range summaries {
		s := summaries[i]
		entries = append(entries, &s)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	r.sortLocked()
}

// ApplyIncoming folds a pushed message into the roster. It returns false when
// the conversation is unknown here; the caller hydrates the summary
// out-of-band and inserts it via Insert. suppressed marks an echo of the local
// user's own write, active marks the currently open and focused conversation;
// neither bumps the unread count.
func (r *Roster) ApplyIncoming(msg *entity.Message, suppressed, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.findLocked(msg.ConversationID)
	if entry == nil {
		return false
	}

	entry.LastMessage = msg.Content
	entry.LastMessageAt = msg.CreatedAt
	if !suppressed && !active {
		entry.UnreadCount++
		entry.HasUnread = true
	}
	r.sortLocked()

	return true
}

// Insert adds a hydrated summary. If the entry appeared while the hydration
// fetch was in flight the insert is skipped, so a racing push event and fetch
// cannot produce duplicates.
func (r *Roster) Insert(summary entity.ConversationSummary) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(summary.ID) != nil {
		return false
	}

	s := summary
	r.entries = append(r.entries, &s)
	r.sortLocked()
	return true
}

// MarkRead clears the unread state for one entry without waiting for the
// server roundtrip. Returns the count that was cleared.
func (r *Roster) MarkRead(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.findLocked(conversationID)
	if entry == nil {
		return 0
	}

	cleared := entry.UnreadCount
	entry.UnreadCount = 0
	entry.HasUnread = false
	return cleared
}

func (r *Roster) Remove(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.ID == conversationID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Roster) Contains(conversationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(conversationID) != nil
}

// Snapshot returns a copy of the roster in display order.
func (r *Roster) Snapshot() []entity.ConversationSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.ConversationSummary, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	return out
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Roster) findLocked(conversationID string) *entity.ConversationSummary {
	for _, entry := range r.entries {
		if entry.ID == conversationID {
			return entry
		}
	}
	return nil
}

// Stable sort: equal timestamps keep their prior relative order.
func (r *Roster) sortLocked() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].LastMessageAt.After(r.entries[j].LastMessageAt)
	})
}
