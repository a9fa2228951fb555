package realtime

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker for tests and single-node development.
// Delivery is synchronous: Publish returns after every subscriber's handler
// has run.
type MemoryBroker struct {
	mu       sync.RWMutex
	nextID   int
	channels map[string]map[int]Handler
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		channels: make(map[string]map[int]Handler),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.channels[channel]))
	for _, fn := range b.channels[channel] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, fn Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.channels[channel] == nil {
		b.channels[channel] = make(map[int]Handler)
	}
	b.channels[channel][id] = fn

	return &memorySubscription{broker: b, channel: channel, id: id}, nil
}

// SubscriberCount reports the live subscriptions on a channel.
func (b *MemoryBroker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	id      int
	once    sync.Once
}

func (s *memorySubscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()

		if handlers, ok := s.broker.channels[s.channel]; ok {
			delete(handlers, s.id)
			if len(handlers) == 0 {
				delete(s.broker.channels, s.channel)
			}
		}
	})
}
