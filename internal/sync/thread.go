package sync

import (
	"sort"
	gosync "sync"
	"time"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
)

// Thread is the paginated message history of one open conversation plus its
// live tail. Pages are corrected for out-of-order arrival within the batch;
// live messages append in arrival order, since sends flow through one
// reconciled sequence.
//
// Every page load is tagged with the generation current when the fetch
// started. Invalidate bumps the generation on teardown, so a slow response
// resolving after the view closed is dropped instead of corrupting whatever
// thread is open next.
type Thread struct {
	mu             gosync.Mutex
	conversationID string
	messages       []*entity.Message
	seen           map[string]struct{}
	hasMore        bool
	oldest         time.Time
	loaded         bool
	generation     uint64
}

func NewThread(conversationID string) *Thread {
	return &Thread{
		conversationID: conversationID,
		seen:           make(map[string]struct{}),
	}
}

func (t *Thread) ConversationID() string {
	return t.conversationID
}

// Generation returns the token an async load must present when applying its
// result.
func (t *Thread) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Invalidate discards the thread's claim on in-flight fetches. State is kept
// as-is; stale applies become no-ops.
func (t *Thread) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
}

// ApplyInitial installs the most recent page as the new visible window.
// Returns false if the thread was invalidated while the fetch was in flight.
func (t *Thread) ApplyInitial(gen uint64, page []*entity.Message, limit int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return false
	}

	sorted := sortPage(page)
	t.messages = sorted
	t.seen = make(map[string]struct{}, len(sorted))
	for _, msg := range sorted {
		t.seen[msg.ID] = struct{}{}
	}
	t.hasMore = len(page) == limit
	t.oldest = oldestOf(sorted)
	t.loaded = true

	return true
}

// ApplyEarlier prepends a load-earlier page, skipping messages already
// present so repeating a cursor fetch cannot duplicate history.
func (t *Thread) ApplyEarlier(gen uint64, page []*entity.Message, limit int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return false
	}

	sorted := sortPage(page)
	var fresh []*entity.Message
	for _, msg := range sorted {
		if _, ok := t.seen[msg.ID]; ok {
			continue
		}
		t.seen[msg.ID] = struct{}{}
		fresh = append(fresh, msg)
	}

	t.messages = append(fresh, t.messages...)
	t.hasMore = len(page) == limit
	if cursor := oldestOf(sorted); !cursor.IsZero() && (t.oldest.IsZero() || cursor.Before(t.oldest)) {
		t.oldest = cursor
	}

	return true
}

// AppendLive inserts a pushed message at the tail, deduplicated by id.
// Returns true if the message was actually inserted.
func (t *Thread) AppendLive(msg *entity.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[msg.ID]; ok {
		return false
	}

	t.seen[msg.ID] = struct{}{}
	t.messages = append(t.messages, msg)
	return true
}

func (t *Thread) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasMore
}

func (t *Thread) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// OldestCursor returns the load-earlier cursor: min(createdAt) over fetched
// pages. ok is false before the initial page arrives.
func (t *Thread) OldestCursor() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.oldest, !t.oldest.IsZero()
}

// Messages returns a copy of the visible window in display order.
func (t *Thread) Messages() []*entity.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*entity.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// sortPage orders one fetched batch createdAt-ascending, ties broken by id so
// the order is deterministic.
func sortPage(page []*entity.Message) []*entity.Message {
	sorted := make([]*entity.Message, len(page))
	copy(sorted, page)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func oldestOf(sorted []*entity.Message) time.Time {
	if len(sorted) == 0 {
		return time.Time{}
	}
	return sorted[0].CreatedAt
}
