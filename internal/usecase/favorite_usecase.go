package usecase

import (
	"context"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

type FavoriteUseCase struct {
	favoriteRepo repository.FavoriteRepository
	broker       realtime.Broker
}

func NewFavoriteUseCase(favoriteRepo repository.FavoriteRepository, broker realtime.Broker) *FavoriteUseCase {
	return &FavoriteUseCase{
		favoriteRepo: favoriteRepo,
		broker:       broker,
	}
}

func (uc *FavoriteUseCase) Add(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	favorite, err := uc.favoriteRepo.Add(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, userID, realtime.EventInsert, favorite)

	return favorite, nil
}

func (uc *FavoriteUseCase) Remove(ctx context.Context, userID, productID string) error {
	favorite, err := uc.favoriteRepo.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}

	uc.publish(ctx, userID, realtime.EventDelete, favorite)

	return nil
}

func (uc *FavoriteUseCase) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	return uc.favoriteRepo.IsFavorite(ctx, userID, productID)
}

func (uc *FavoriteUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Favorite, int64, error) {
	return uc.favoriteRepo.List(ctx, userID, limit, offset)
}

func (uc *FavoriteUseCase) Count(ctx context.Context, userID string) (int64, error) {
	return uc.favoriteRepo.Count(ctx, userID)
}

func (uc *FavoriteUseCase) publish(ctx context.Context, userID string, eventType realtime.EventType, favorite *entity.Favorite) {
	event, err := realtime.NewEvent(eventType, realtime.TableFavorites, favorite)
	if err != nil {
		logger.Warn("Favorite publish: failed to encode event for product %s: %v", favorite.ProductID, err)
		return
	}
	if err := uc.broker.Publish(ctx, realtime.UserFavoritesChannel(userID), event); err != nil {
		logger.Warn("Favorite publish: push failed for user %s: %v", userID, err)
	}
}
