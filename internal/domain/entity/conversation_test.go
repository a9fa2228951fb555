package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryForIsViewerRelative(t *testing.T) {
	conversation := &Conversation{
		ID:            "conv-1",
		SellerID:      "seller",
		BuyerID:       "buyer",
		ProductID:     "prod-1",
		Participants:  []string{"seller", "buyer"},
		LastMessage:   "last words",
		LastMessageAt: time.Now(),
		UnreadCount:   map[string]int{"seller": 2},
	}

	sellerView := conversation.SummaryFor("seller")
	assert.Equal(t, "buyer", sellerView.CounterpartID)
	assert.Equal(t, 2, sellerView.UnreadCount)
	assert.True(t, sellerView.HasUnread)

	buyerView := conversation.SummaryFor("buyer")
	assert.Equal(t, "seller", buyerView.CounterpartID)
	assert.Equal(t, 0, buyerView.UnreadCount)
	assert.False(t, buyerView.HasUnread)
}

func TestSummaryForNilUnreadMap(t *testing.T) {
	conversation := &Conversation{ID: "conv-1", SellerID: "s", BuyerID: "b"}

	view := conversation.SummaryFor("s")
	assert.Equal(t, 0, view.UnreadCount)
	assert.False(t, view.HasUnread)
}

func TestDeletedByAndHasParticipant(t *testing.T) {
	conversation := &Conversation{
		Participants: []string{"seller", "buyer"},
		DeletedFor:   []string{"buyer"},
	}

	assert.True(t, conversation.DeletedBy("buyer"))
	assert.False(t, conversation.DeletedBy("seller"))
	assert.True(t, conversation.HasParticipant("seller"))
	assert.False(t, conversation.HasParticipant("mallory"))
}
