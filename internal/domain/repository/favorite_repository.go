package repository

import (
	"context"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
)

type FavoriteRepository interface {
	// Add product to user's favorites
	Add(ctx context.Context, userID, productID string) (*entity.Favorite, error)

	// Remove product from user's favorites, returning the removed item
	Remove(ctx context.Context, userID, productID string) (*entity.Favorite, error)

	// Check if product is in user's favorites
	IsFavorite(ctx context.Context, userID, productID string) (bool, error)

	// Get user's favorites
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.Favorite, int64, error)

	// Get favorite count for user
	Count(ctx context.Context, userID string) (int64, error)
}
