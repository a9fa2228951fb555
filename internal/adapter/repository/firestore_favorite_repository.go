package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
)

type firestoreFavoriteRepository struct {
	client *firestore.Client
}

func NewFirestoreFavoriteRepository(client *firestore.Client) repository.FavoriteRepository {
	return &firestoreFavoriteRepository{
		client: client,
	}
}

func (r *firestoreFavoriteRepository) Add(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	if existing, err := r.find(ctx, userID, productID); err == nil {
		return existing, nil
	}

	favorite := &entity.Favorite{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	_, err := r.client.Collection("favorites").Doc(favorite.ID).Set(ctx, favorite)
	if err != nil {
		return nil, errors.Internal("Failed to add favorite", err)
	}

	return favorite, nil
}

func (r *firestoreFavoriteRepository) Remove(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	favorite, err := r.find(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if _, err := r.client.Collection("favorites").Doc(favorite.ID).Delete(ctx); err != nil {
		return nil, errors.Internal("Failed to remove favorite", err)
	}

	return favorite, nil
}

func (r *firestoreFavoriteRepository) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	if _, err := r.find(ctx, userID, productID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *firestoreFavoriteRepository) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Favorite, int64, error) {
	query := r.client.Collection("favorites").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch favorites", err)
	}

	total := int64(len(allDocs))

	start := offset
	end := len(allDocs)
	if limit > 0 {
		end = start + limit
		if end > len(allDocs) {
			end = len(allDocs)
		}
	}
	if start > len(allDocs) {
		start = len(allDocs)
	}

	var favorites []*entity.Favorite
	for i := start; i < end; i++ {
		var favorite entity.Favorite
		if err := allDocs[i].DataTo(&favorite); err != nil {
			continue // Skip malformed documents
		}
		favorites = append(favorites, &favorite)
	}

	return favorites, total, nil
}

func (r *firestoreFavoriteRepository) Count(ctx context.Context, userID string) (int64, error) {
	docs, err := r.client.Collection("favorites").
		Where("userId", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count favorites", err)
	}

	return int64(len(docs)), nil
}

func (r *firestoreFavoriteRepository) find(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	query := r.client.Collection("favorites").
		Where("userId", "==", userID).
		Where("productId", "==", productID).
		Limit(1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query favorites", err)
	}
	if len(docs) == 0 {
		return nil, errors.NotFound("Favorite", nil)
	}

	var favorite entity.Favorite
	if err := docs[0].DataTo(&favorite); err != nil {
		return nil, errors.Internal("Failed to parse favorite data", err)
	}

	return &favorite, nil
}
