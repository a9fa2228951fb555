package realtime

import (
	"context"
	"sync"

	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

// Scope names one class of subscription a session can hold.
type Scope string

const (
	ScopeUserConversations Scope = "user_conversations"
	ScopeThread            Scope = "thread"
	ScopeUserNotifications Scope = "user_notifications"
	ScopeUserFavorites     Scope = "user_favorites"
)

type subscriptionKey struct {
	scope  Scope
	filter string
}

// SubscriptionManager holds at most one live subscription per (scope, filter)
// pair. Opening a key that is already open closes the previous subscription
// first, so switching the active conversation can never accumulate handlers.
type SubscriptionManager struct {
	broker Broker
	mu     sync.Mutex
	active map[subscriptionKey]*SubscriptionHandle
}

func NewSubscriptionManager(broker Broker) *SubscriptionManager {
	return &SubscriptionManager{
		broker: broker,
		active: make(map[subscriptionKey]*SubscriptionHandle),
	}
}

// SubscriptionHandle is a scoped-acquisition handle: Close is idempotent and
// must run on every exit path of the owning surface.
type SubscriptionHandle struct {
	manager *SubscriptionManager
	key     subscriptionKey
	sub     Subscription
	once    sync.Once
}

func (h *SubscriptionHandle) Close() {
	h.once.Do(func() {
		h.sub.Unsubscribe()

		h.manager.mu.Lock()
		defer h.manager.mu.Unlock()
		if h.manager.active[h.key] == h {
			delete(h.manager.active, h.key)
		}
	})
}

// Open subscribes fn to the channel for (scope, filter), replacing any
// existing subscription for the same key (close-then-open).
func (m *SubscriptionManager) Open(ctx context.Context, scope Scope, filter, channel string, fn Handler) (*SubscriptionHandle, error) {
	key := subscriptionKey{scope: scope, filter: filter}

	m.mu.Lock()
	previous := m.active[key]
	delete(m.active, key)
	m.mu.Unlock()

	if previous != nil {
		logger.Debug("Replacing live subscription %s/%s", scope, filter)
		previous.Close()
	}

	sub, err := m.broker.Subscribe(ctx, channel, fn)
	if err != nil {
		return nil, err
	}

	handle := &SubscriptionHandle{manager: m, key: key, sub: sub}

	m.mu.Lock()
	m.active[key] = handle
	m.mu.Unlock()

	return handle, nil
}

// CloseScope tears down every subscription of one scope.
func (m *SubscriptionManager) CloseScope(scope Scope) {
	m.mu.Lock()
	var handles []*SubscriptionHandle
	for key, handle := range m.active {
		if key.scope == scope {
			handles = append(handles, handle)
		}
	}
	m.mu.Unlock()

	for _, handle := range handles {
		handle.Close()
	}
}

// CloseAll tears down everything. Safe to call repeatedly; used on session
// teardown including error paths.
func (m *SubscriptionManager) CloseAll() {
	m.mu.Lock()
	handles := make([]*SubscriptionHandle, 0, len(m.active))
	for _, handle := range m.active {
		handles = append(handles, handle)
	}
	m.mu.Unlock()

	for _, handle := range handles {
		handle.Close()
	}
}

// ActiveCount reports live subscriptions across all scopes.
func (m *SubscriptionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
