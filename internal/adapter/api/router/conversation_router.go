package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/handler"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up all conversation-related routes (excluding the realtime endpoint)
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, authMiddleware *middleware.AuthMiddleware) {
	conversationGroup := e.Group("/v1/conversations")
	conversationGroup.Use(authMiddleware.Authenticate)

	conversationGroup.GET("", conversationHandler.ListConversations)          // GET /v1/conversations - Roster
	conversationGroup.GET("/unread-count", conversationHandler.GetUnreadCount) // GET /v1/conversations/unread-count
	conversationGroup.POST("/messages", conversationHandler.SendMessage)      // POST /v1/conversations/messages - Send (creates conversation on first message)
	conversationGroup.GET("/:id/messages", conversationHandler.GetMessages)   // GET /v1/conversations/:id/messages - History page
	conversationGroup.PUT("/:id/read", conversationHandler.MarkRead)          // PUT /v1/conversations/:id/read
	conversationGroup.DELETE("/:id", conversationHandler.DeleteConversation)  // DELETE /v1/conversations/:id - Viewer-local delete
}
