package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/handler"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/middleware"
)

// SetupSessionRouter sets up the realtime websocket endpoint. The token rides
// in the query string because browsers cannot set headers on upgrades.
func SetupSessionRouter(e *echo.Echo, sessionHandler *handler.SessionHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws", sessionHandler.HandleSession, authMiddleware.AuthenticateQueryToken)
}
