package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/handler"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notificationGroup := e.Group("/v1/notifications")
	notificationGroup.Use(authMiddleware.Authenticate)

	notificationGroup.GET("", notificationHandler.ListNotifications)
	notificationGroup.POST("", notificationHandler.PublishNotification) // Backend flows publish through here
	notificationGroup.GET("/unread-count", notificationHandler.GetUnreadCount)
	notificationGroup.PUT("/read-all", notificationHandler.MarkAllRead)
	notificationGroup.PUT("/:id/read", notificationHandler.MarkRead)
}
