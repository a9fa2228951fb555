package entity

import "time"

// Message is append-only once created. The id is globally unique and is the
// deduplication key when the same message arrives both as an optimistic local
// append and as a push echo.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	ReceiverID     string    `json:"receiver_id" firestore:"receiverId"`
	ProductID      string    `json:"product_id,omitempty" firestore:"productId,omitempty"`
	Content        string    `json:"content" firestore:"content"`
	IsRead         bool      `json:"is_read" firestore:"isRead"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
