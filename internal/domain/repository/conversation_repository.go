package repository

import (
	"context"
	"time"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetByParticipants(ctx context.Context, sellerID, buyerID, productID string) (*entity.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	DeleteForUser(ctx context.Context, conversationID, userID string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	// FetchMessages returns up to limit messages ordered oldest-to-newest.
	// A nil before fetches the most recent page; otherwise only messages
	// created strictly before the cursor are returned.
	FetchMessages(ctx context.Context, conversationID string, limit int, before *time.Time) ([]*entity.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
