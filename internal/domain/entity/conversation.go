package entity

import "time"

type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	SellerID      string         `json:"seller_id" firestore:"sellerId"`
	BuyerID       string         `json:"buyer_id" firestore:"buyerId"`
	ProductID     string         `json:"product_id,omitempty" firestore:"productId,omitempty"`
	Participants  []string       `json:"participants" firestore:"participants"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
	DeletedFor    []string       `json:"-" firestore:"deletedFor"`             // Viewer-local deletes, not a row delete
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ConversationSummary is the viewer-relative roster projection of a
// conversation. The same row yields different summaries for seller and buyer.
type ConversationSummary struct {
	ID            string    `json:"id"`
	CounterpartID string    `json:"counterpart_id"`
	ProductID     string    `json:"product_id,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
	HasUnread     bool      `json:"has_unread"`
}

// SummaryFor projects the conversation for one viewer. HasUnread is derived
// from UnreadCount so the two can never disagree.
func (c *Conversation) SummaryFor(viewerID string) ConversationSummary {
	counterpart := c.SellerID
	if viewerID == c.SellerID {
		counterpart = c.BuyerID
	}

	unread := 0
	if c.UnreadCount != nil {
		unread = c.UnreadCount[viewerID]
	}

	return ConversationSummary{
		ID:            c.ID,
		CounterpartID: counterpart,
		ProductID:     c.ProductID,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   unread,
		HasUnread:     unread > 0,
	}
}

// DeletedBy reports whether the viewer removed this conversation from their
// roster. The row itself survives for the other participant.
func (c *Conversation) DeletedBy(viewerID string) bool {
	for _, id := range c.DeletedFor {
		if id == viewerID {
			return true
		}
	}
	return false
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
