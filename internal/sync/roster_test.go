package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
)

func summaryAt(id string, at time.Time) entity.ConversationSummary {
	return entity.ConversationSummary{
		ID:            id,
		LastMessage:   "hello",
		LastMessageAt: at,
	}
}

func TestRosterOrdersMostRecentFirst(t *testing.T) {
	base := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{
		summaryAt("a", base.Add(-2*time.Hour)),
		summaryAt("b", base),
		summaryAt("c", base.Add(-time.Hour)),
	})

	snapshot := roster.Snapshot()
	assert.Equal(t, "b", snapshot[0].ID)
	assert.Equal(t, "c", snapshot[1].ID)
	assert.Equal(t, "a", snapshot[2].ID)
}

func TestRosterTimestampTiesKeepRelativeOrder(t *testing.T) {
	at := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{
		summaryAt("first", at),
		summaryAt("second", at),
		summaryAt("third", at),
	})

	snapshot := roster.Snapshot()
	assert.Equal(t, "first", snapshot[0].ID)
	assert.Equal(t, "second", snapshot[1].ID)
	assert.Equal(t, "third", snapshot[2].ID)
}

func TestRosterApplyIncomingReordersAndCounts(t *testing.T) {
	base := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{
		summaryAt("a", base),
		summaryAt("b", base.Add(-time.Hour)),
	})

	applied := roster.ApplyIncoming(&entity.Message{
		ID:             "m1",
		ConversationID: "b",
		Content:        "new arrival",
		CreatedAt:      base.Add(time.Minute),
	}, false, false)

	assert.True(t, applied)
	snapshot := roster.Snapshot()
	assert.Equal(t, "b", snapshot[0].ID)
	assert.Equal(t, "new arrival", snapshot[0].LastMessage)
	assert.Equal(t, 1, snapshot[0].UnreadCount)
	assert.True(t, snapshot[0].HasUnread)
}

func TestRosterSuppressedEchoDoesNotCount(t *testing.T) {
	base := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{summaryAt("a", base)})

	roster.ApplyIncoming(&entity.Message{
		ID:             "m1",
		ConversationID: "a",
		Content:        "my own message",
		CreatedAt:      base.Add(time.Minute),
	}, true, false)

	snapshot := roster.Snapshot()
	assert.Equal(t, "my own message", snapshot[0].LastMessage)
	assert.Equal(t, 0, snapshot[0].UnreadCount)
	assert.False(t, snapshot[0].HasUnread)
}

func TestRosterActiveConversationDoesNotCount(t *testing.T) {
	base := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{summaryAt("a", base)})

	roster.ApplyIncoming(&entity.Message{
		ID:             "m1",
		ConversationID: "a",
		Content:        "reply while open",
		CreatedAt:      base.Add(time.Minute),
	}, false, true)

	assert.Equal(t, 0, roster.Snapshot()[0].UnreadCount)
}

func TestRosterApplyIncomingUnknownConversation(t *testing.T) {
	roster := NewRoster()

	applied := roster.ApplyIncoming(&entity.Message{
		ID:             "m1",
		ConversationID: "ghost",
		CreatedAt:      time.Now(),
	}, false, false)

	assert.False(t, applied)
	assert.Equal(t, 0, roster.Len())
}

func TestRosterInsertSkipsExistingEntry(t *testing.T) {
	at := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{summaryAt("a", at)})

	// Push event and hydration fetch raced; the late insert is a no-op.
	assert.False(t, roster.Insert(summaryAt("a", at)))
	assert.True(t, roster.Insert(summaryAt("b", at)))
	assert.Equal(t, 2, roster.Len())
}

func TestRosterMarkReadReturnsClearedCount(t *testing.T) {
	base := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{summaryAt("a", base)})

	for i := 0; i < 3; i++ {
		roster.ApplyIncoming(&entity.Message{
			ID:             "m" + string(rune('0'+i)),
			ConversationID: "a",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}, false, false)
	}

	assert.Equal(t, 3, roster.MarkRead("a"))
	assert.Equal(t, 0, roster.MarkRead("a"))
	assert.False(t, roster.Snapshot()[0].HasUnread)
}

func TestRosterRemove(t *testing.T) {
	at := time.Now()
	roster := NewRoster()
	roster.Replace([]entity.ConversationSummary{summaryAt("a", at), summaryAt("b", at)})

	assert.True(t, roster.Remove("a"))
	assert.False(t, roster.Remove("a"))
	assert.False(t, roster.Contains("a"))
	assert.Equal(t, 1, roster.Len())
}
