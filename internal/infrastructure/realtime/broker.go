// Package realtime provides the push channel: row-level change events
// published per channel and delivered at-least-once, with no ordering
// guarantee across channels.
package realtime

import (
	"context"
	"encoding/json"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableFavorites     = "favorites"
)

// Event is one row-level change. Record carries the affected row encoded as
// JSON; consumers decode it against the table they subscribed for.
type Event struct {
	Type   EventType       `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

func NewEvent(eventType EventType, table string, record interface{}) (Event, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Table: table, Record: raw}, nil
}

// Handler receives events for one subscription. Handlers run on the broker's
// delivery goroutine and must not block.
type Handler func(event Event)

type Subscription interface {
	Unsubscribe()
}

type Broker interface {
	Subscribe(ctx context.Context, channel string, fn Handler) (Subscription, error)
	Publish(ctx context.Context, channel string, event Event) error
}

// Channel naming. One channel per subscription filter the platform exposes.

func UserConversationsChannel(userID string) string {
	return "conv:user:" + userID
}

func ConversationChannel(conversationID string) string {
	return "conv:thread:" + conversationID
}

func UserNotificationsChannel(userID string) string {
	return "notif:user:" + userID
}

func UserFavoritesChannel(userID string) string {
	return "fav:user:" + userID
}
