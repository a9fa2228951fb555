package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

// RedisBroker carries events over Redis pub/sub so every API instance sees
// writes made through any other instance. Reconnects are go-redis's problem;
// this layer only guarantees clean subscribe/unsubscribe.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Internal("Failed to encode event", err)
	}

	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.Internal("Failed to publish event", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string, fn Handler) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Force the subscription to be established before returning, so a
	// publish issued right after Subscribe cannot be lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.Internal("Failed to subscribe to channel", err)
	}

	sub := &redisSubscription{pubsub: pubsub}

	go func() {
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("Dropping malformed event on channel %s: %v", channel, err)
				continue
			}
			fn(event)
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
}

func (s *redisSubscription) Unsubscribe() {
	// Closing the PubSub also closes its delivery channel, ending the
	// dispatch goroutine. Safe to call more than once.
	if err := s.pubsub.Close(); err != nil {
		logger.Debug("pubsub close: %v", err)
	}
}
