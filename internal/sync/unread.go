package sync

import (
	"context"
	gosync "sync"

	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

// CountFunc fetches the authoritative unread count for a user.
type CountFunc func(ctx context.Context, userID string) (int, error)

// UnreadCounter maintains a single badge value: authoritative counts replace
// it, push-driven deltas adjust it in between. Deltas are best-effort; any
// drift is corrected by the next Refresh.
type UnreadCounter struct {
	mu       gosync.Mutex
	value    int
	count    CountFunc
	onChange func(int)
}

func NewUnreadCounter(count CountFunc, onChange func(int)) *UnreadCounter {
	return &UnreadCounter{
		count:    count,
		onChange: onChange,
	}
}

// Refresh replaces the local value with the authoritative count. Fetch
// failures keep the stale value; unread badges are not safety-critical.
func (c *UnreadCounter) Refresh(ctx context.Context, userID string) {
	n, err := c.count(ctx, userID)
	if err != nil {
		logger.Warn("unread refresh failed for user %s, keeping stale count: %v", userID, err)
		return
	}

	c.mu.Lock()
	c.value = n
	c.mu.Unlock()

	c.notify(n)
}

// ApplyDelta adjusts the in-memory value, clamped at zero.
func (c *UnreadCounter) ApplyDelta(delta int) {
	c.mu.Lock()
	c.value += delta
	if c.value < 0 {
		c.value = 0
	}
	n := c.value
	c.mu.Unlock()

	c.notify(n)
}

func (c *UnreadCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *UnreadCounter) notify(n int) {
	if c.onChange != nil {
		c.onChange(n)
	}
}
