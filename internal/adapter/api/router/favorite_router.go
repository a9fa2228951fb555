package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/handler"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/middleware"
)

func SetupFavoriteRouter(e *echo.Echo, favoriteHandler *handler.FavoriteHandler, authMiddleware *middleware.AuthMiddleware) {
	favoriteGroup := e.Group("/v1/favorites")
	favoriteGroup.Use(authMiddleware.Authenticate)

	favoriteGroup.POST("", favoriteHandler.AddFavorite)
	favoriteGroup.GET("", favoriteHandler.ListFavorites)
	favoriteGroup.GET("/count", favoriteHandler.GetCount)
	favoriteGroup.GET("/:productId/status", favoriteHandler.GetFavoriteStatus)
	favoriteGroup.DELETE("/:productId", favoriteHandler.RemoveFavorite)
}
