package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
)

func newMessagingForTest() (*MessagingUseCase, *memoryConversationRepo) {
	repo := newMemoryConversationRepo()
	return NewMessagingUseCase(repo, realtime.NewMemoryBroker()), repo
}

func TestSendMessageCreatesConversationOnFirstMessage(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	message, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-1",
		Content:    "is this available?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, message.ConversationID)
	assert.Equal(t, "bob", message.ReceiverID)

	summaries, err := uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "alice", summaries[0].CounterpartID)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, "is this available?", summaries[0].LastMessage)
}

func TestSendMessageReusesConversationInEitherDirection(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	first, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-1",
		Content:    "hello",
	})
	require.NoError(t, err)

	// Bob replies addressing the user and listing, not the conversation.
	reply, err := uc.SendMessage(ctx, "bob", SendMessageInput{
		ReceiverID: "alice",
		ProductID:  "prod-1",
		Content:    "hi back",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, reply.ConversationID)
	assert.Equal(t, "alice", reply.ReceiverID)
}

func TestSendMessageSeparateConversationPerListing(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	first, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-1",
		Content:    "about the first one",
	})
	require.NoError(t, err)

	second, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-2",
		Content:    "about the second one",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestSendMessageRestoresDeletedConversation(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	message, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-1",
		Content:    "hello",
	})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, "bob", message.ConversationID))
	listed, err := uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, listed)

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{
		ConversationID: message.ConversationID,
		Content:        "are you there?",
	})
	require.NoError(t, err)

	listed, err = uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	uc, _ := newMessagingForTest()

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "bob",
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageRejectsSelfConversation(t *testing.T) {
	uc, _ := newMessagingForTest()

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		ReceiverID: "alice",
		Content:    "note to self",
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestFetchMessagesRequiresParticipant(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	message, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ReceiverID: "bob",
		ProductID:  "prod-1",
		Content:    "hello",
	})
	require.NoError(t, err)

	_, err = uc.FetchMessages(ctx, "mallory", message.ConversationID, 60, nil)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestCountUnreadSumsAcrossConversations(t *testing.T) {
	uc, _ := newMessagingForTest()
	ctx := context.Background()

	for _, productID := range []string{"prod-1", "prod-2"} {
		_, err := uc.SendMessage(ctx, "alice", SendMessageInput{
			ReceiverID: "bob",
			ProductID:  productID,
			Content:    "hello",
		})
		require.NoError(t, err)
	}

	count, err := uc.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Reading one conversation leaves the other's count intact.
	listed, err := uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, uc.MarkRead(ctx, "bob", listed[0].ID))

	count, err = uc.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
