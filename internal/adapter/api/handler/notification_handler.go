package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/usecase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/response"
)

const defaultNotificationPageSize = 50

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

type publishNotificationRequest struct {
	UserID    string                 `json:"user_id" validate:"required"`
	Type      string                 `json:"type" validate:"required,oneof=listing message system"`
	RelatedID string                 `json:"related_id"`
	Title     string                 `json:"title" validate:"required"`
	Content   string                 `json:"content"`
	Meta      map[string]interface{} `json:"meta"`
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit := defaultNotificationPageSize
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	notifications, err := h.notificationUseCase.Fetch(c.Request().Context(), userID, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, notifications)
}

// PublishNotification is the entry point backend flows call to reach a user
// (listing sold, price drop, system broadcast).
func (h *NotificationHandler) PublishNotification(c echo.Context) error {
	var req publishNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	notification := &entity.Notification{
		UserID:    req.UserID,
		Type:      entity.NotificationType(req.Type),
		RelatedID: req.RelatedID,
		Title:     req.Title,
		Content:   req.Content,
		Meta:      req.Meta,
	}

	if err := h.notificationUseCase.Publish(c.Request().Context(), notification); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, notification)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	notificationID := c.Param("id")

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), userID, notificationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.notificationUseCase.MarkAllRead(c.Request().Context(), userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.notificationUseCase.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread_count": count})
}
