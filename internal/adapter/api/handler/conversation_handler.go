package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/usecase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/response"
)

const defaultMessagePageSize = 60

type ConversationHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewConversationHandler(messagingUseCase *usecase.MessagingUseCase) *ConversationHandler {
	return &ConversationHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	ReceiverID     string `json:"receiver_id"`
	ProductID      string `json:"product_id"`
	Content        string `json:"content" validate:"required"`
}

// ListConversations returns the viewer's roster, most recent first.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	summaries, err := h.messagingUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summaries)
}

// GetMessages returns one history page, oldest-to-newest. The optional
// `before` query parameter (RFC3339) pages backwards.
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	limit := defaultMessagePageSize
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	var before *time.Time
	if beforeStr := c.QueryParam("before"); beforeStr != "" {
		parsed, err := time.Parse(time.RFC3339Nano, beforeStr)
		if err != nil {
			return response.Error(c, errors.BadRequest("Invalid before cursor", err))
		}
		before = &parsed
	}

	messages, err := h.messagingUseCase.FetchMessages(c.Request().Context(), userID, conversationID, limit, before)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"messages": messages,
		"has_more": len(messages) == limit,
	})
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ConversationID: req.ConversationID,
		ReceiverID:     req.ReceiverID,
		ProductID:      req.ProductID,
		Content:        req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	if err := h.messagingUseCase.MarkRead(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *ConversationHandler) DeleteConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	if err := h.messagingUseCase.Delete(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

func (h *ConversationHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.messagingUseCase.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread_count": count})
}
