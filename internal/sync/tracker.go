// Package sync holds the in-memory state that keeps one user's view of
// conversations, unread counts and notifications consistent while push events,
// REST fetches and optimistic local writes interleave.
package sync

import (
	"sync"
	"time"
)

// sweepThreshold bounds the tracker map; expiry is otherwise lazy.
const sweepThreshold = 64

// MutationTracker remembers ids the local user recently wrote so the push
// echo of that write can be recognized and discarded instead of being counted
// as a new remote event. One tracker serves every surface that both mutates
// and subscribes (messages, notifications, favorites).
//
// The window is a heuristic, not a consistency proof: an echo arriving after
// expiry is counted as genuinely new. Expiry exists to bound memory, since ids
// are unique in practice.
type MutationTracker[K comparable] struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[K]time.Time
	now     func() time.Time
}

func NewMutationTracker[K comparable](window time.Duration) *MutationTracker[K] {
	return &MutationTracker[K]{
		window:  window,
		entries: make(map[K]time.Time),
		now:     time.Now,
	}
}

// Track records a locally-originated mutation id. Call before the write is
// published so the echo can never win the race.
func (t *MutationTracker[K]) Track(id K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) >= sweepThreshold {
		t.sweepLocked()
	}
	t.entries[id] = t.now()
}

// Consume reports whether id belongs to a fresh local mutation and removes it
// either way. True means the caller should suppress the event's count delta.
func (t *MutationTracker[K]) Consume(id K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.entries[id]
	if !ok {
		return false
	}
	delete(t.entries, id)

	return t.now().Sub(tracked) <= t.window
}

// Len returns the number of tracked ids, expired entries included.
func (t *MutationTracker[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Cleanup drops expired entries.
func (t *MutationTracker[K]) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
}

func (t *MutationTracker[K]) sweepLocked() {
	now := t.now()
	for id, tracked := range t.entries {
		if now.Sub(tracked) > t.window {
			delete(t.entries, id)
		}
	}
}
