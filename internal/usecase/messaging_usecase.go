package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

// MessagingUseCase performs the conversation/message writes and reads. Every
// successful write is also published on the push channel; sessions subscribed
// to the affected channels fold the event into their local caches. The
// sender's own session receives that publish too; that echo is what the
// session's mutation tracker exists to suppress.
type MessagingUseCase struct {
	conversationRepo repository.ConversationRepository
	broker           realtime.Broker
}

func NewMessagingUseCase(conversationRepo repository.ConversationRepository, broker realtime.Broker) *MessagingUseCase {
	return &MessagingUseCase{
		conversationRepo: conversationRepo,
		broker:           broker,
	}
}

type SendMessageInput struct {
	// MessageID may be pre-generated by the caller so the id can be
	// tracked for echo suppression before the write is published.
	MessageID      string
	ConversationID string
	ReceiverID     string
	ProductID      string
	Content        string
}

func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if input.Content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}

	conversation, err := uc.resolveConversation(ctx, senderID, input)
	if err != nil {
		return nil, err
	}

	receiverID := conversation.SellerID
	if senderID == conversation.SellerID {
		receiverID = conversation.BuyerID
	}

	message := &entity.Message{
		ID:             input.MessageID,
		ConversationID: conversation.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		ProductID:      input.ProductID,
		Content:        input.Content,
		CreatedAt:      time.Now(),
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage: failed to create message in conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	conversation.LastMessage = message.Content
	conversation.LastMessageAt = message.CreatedAt
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[receiverID]++
	// A new message restores the conversation for a viewer who deleted it.
	conversation.DeletedFor = without(conversation.DeletedFor, receiverID)

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Error("SendMessage: failed to update conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	uc.publishMessage(ctx, conversation, message)

	return message, nil
}

func (uc *MessagingUseCase) resolveConversation(ctx context.Context, senderID string, input SendMessageInput) (*entity.Conversation, error) {
	if input.ConversationID != "" {
		conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
		if err != nil {
			return nil, err
		}
		if !conversation.HasParticipant(senderID) {
			return nil, errors.Forbidden("User is not a participant in this conversation", nil)
		}
		return conversation, nil
	}

	if input.ReceiverID == "" {
		return nil, errors.BadRequest("Receiver is required for a new conversation", nil)
	}
	if input.ReceiverID == senderID {
		return nil, errors.BadRequest("You cannot message yourself", nil)
	}

	// First message for this (parties, listing) context creates the
	// conversation; an existing one is reused in either role orientation.
	conversation, err := uc.conversationRepo.GetByParticipants(ctx, input.ReceiverID, senderID, input.ProductID)
	if err != nil && errors.Is(err, "NOT_FOUND") {
		conversation, err = uc.conversationRepo.GetByParticipants(ctx, senderID, input.ReceiverID, input.ProductID)
	}
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	conversation = &entity.Conversation{
		SellerID:      input.ReceiverID,
		BuyerID:       senderID,
		ProductID:     input.ProductID,
		LastMessageAt: time.Now(),
		UnreadCount:   make(map[string]int),
	}
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	return conversation, nil
}

func (uc *MessagingUseCase) publishMessage(ctx context.Context, conversation *entity.Conversation, message *entity.Message) {
	event, err := realtime.NewEvent(realtime.EventInsert, realtime.TableMessages, message)
	if err != nil {
		logger.Warn("SendMessage: failed to encode push event for message %s: %v", message.ID, err)
		return
	}

	channels := []string{
		realtime.ConversationChannel(conversation.ID),
		realtime.UserConversationsChannel(message.ReceiverID),
		realtime.UserConversationsChannel(message.SenderID),
	}
	for _, channel := range channels {
		if err := uc.broker.Publish(ctx, channel, event); err != nil {
			logger.Warn("SendMessage: publish to %s failed: %v", channel, err)
		}
	}
}

// ListConversations returns the viewer-relative roster, most recent first.
func (uc *MessagingUseCase) ListConversations(ctx context.Context, userID string) ([]entity.ConversationSummary, error) {
	conversations, err := uc.conversationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summaries = append(summaries, conversation.SummaryFor(userID))
	}

	return summaries, nil
}

// GetSummary hydrates one conversation summary for the viewer; used when a
// push event references a conversation the roster does not know yet.
func (uc *MessagingUseCase) GetSummary(ctx context.Context, conversationID, userID string) (entity.ConversationSummary, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return entity.ConversationSummary{}, err
	}
	if !conversation.HasParticipant(userID) {
		return entity.ConversationSummary{}, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return conversation.SummaryFor(userID), nil
}

func (uc *MessagingUseCase) FetchMessages(ctx context.Context, userID, conversationID string, limit int, before *time.Time) ([]*entity.Message, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.conversationRepo.FetchMessages(ctx, conversationID, limit, before)
}

func (uc *MessagingUseCase) MarkRead(ctx context.Context, userID, conversationID string) error {
	return uc.conversationRepo.MarkRead(ctx, conversationID, userID)
}

// Delete removes the conversation from the viewer's roster only.
func (uc *MessagingUseCase) Delete(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	if err := uc.conversationRepo.DeleteForUser(ctx, conversationID, userID); err != nil {
		return err
	}

	// Other surfaces of the same viewer (second tab) drop the entry too.
	event, err := realtime.NewEvent(realtime.EventDelete, realtime.TableConversations, map[string]string{"id": conversationID})
	if err == nil {
		if err := uc.broker.Publish(ctx, realtime.UserConversationsChannel(userID), event); err != nil {
			logger.Warn("Delete: publish failed for conversation %s: %v", conversationID, err)
		}
	}

	return nil
}

func (uc *MessagingUseCase) CountUnread(ctx context.Context, userID string) (int, error) {
	return uc.conversationRepo.CountUnread(ctx, userID)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
