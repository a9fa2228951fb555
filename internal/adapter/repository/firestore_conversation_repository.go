package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.Participants = []string{conversation.SellerID, conversation.BuyerID}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) GetByParticipants(ctx context.Context, sellerID, buyerID, productID string) (*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("sellerId", "==", sellerID).
		Where("buyerId", "==", buyerID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query conversations by participants", err)
	}

	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			continue // Skip malformed documents
		}
		if conversation.ProductID == productID {
			return &conversation, nil
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch conversations", err)
	}

	var conversations []*entity.Conversation
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation for user %s: %v", userID, err)
			continue
		}
		if conversation.DeletedBy(userID) {
			continue
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

// DeleteForUser removes the conversation from one viewer's roster only. The
// row survives for the other participant.
func (r *firestoreConversationRepository) DeleteForUser(ctx context.Context, conversationID, userID string) error {
	conversation, err := r.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if conversation.DeletedBy(userID) {
		return nil
	}
	conversation.DeletedFor = append(conversation.DeletedFor, userID)

	return r.Update(ctx, conversation)
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("conversations").Doc(message.ConversationID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) FetchMessages(ctx context.Context, conversationID string, limit int, before *time.Time) ([]*entity.Message, error) {
	query := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		OrderBy("createdAt", firestore.Desc)
	if before != nil {
		query = query.Where("createdAt", "<", *before)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message in conversation %s: %v", conversationID, err)
			continue
		}

		messages = append(messages, &message)
	}

	// Query order is newest-first; callers get pages oldest-to-newest.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	conversation, err := r.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	if conversation.UnreadCount[userID] == 0 {
		return nil
	}
	conversation.UnreadCount[userID] = 0

	return r.Update(ctx, conversation)
}

func (r *firestoreConversationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	conversations, err := r.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, conversation := range conversations {
		if conversation.UnreadCount != nil {
			total += conversation.UnreadCount[userID]
		}
	}

	return total, nil
}
