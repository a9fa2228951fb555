package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/usecase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/response"
)

type FavoriteHandler struct {
	favoriteUseCase *usecase.FavoriteUseCase
}

func NewFavoriteHandler(favoriteUseCase *usecase.FavoriteUseCase) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteUseCase: favoriteUseCase,
	}
}

type addFavoriteRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	var req addFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	favorite, err := h.favoriteUseCase.Add(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, favorite)
}

func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("productId")

	if err := h.favoriteUseCase.Remove(c.Request().Context(), userID, productID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "removed"})
}

func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit := 20
	offset := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	favorites, total, err := h.favoriteUseCase.List(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	page := offset/limit + 1
	return response.Paginated(c, favorites, total, page, limit)
}

func (h *FavoriteHandler) GetFavoriteStatus(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("productId")

	isFavorite, err := h.favoriteUseCase.IsFavorite(c.Request().Context(), userID, productID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"is_favorite": isFavorite})
}

func (h *FavoriteHandler) GetCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.favoriteUseCase.Count(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"count": count})
}
