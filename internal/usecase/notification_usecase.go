package usecase

import (
	"context"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	broker           realtime.Broker
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, broker realtime.Broker) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		broker:           broker,
	}
}

// Publish stores a notification and pushes it to the recipient's channel.
// This is the entry point backend flows (listing sold, price drop, system
// broadcasts) call when they want to reach a user.
func (uc *NotificationUseCase) Publish(ctx context.Context, notification *entity.Notification) error {
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	event, err := realtime.NewEvent(realtime.EventInsert, realtime.TableNotifications, notification)
	if err != nil {
		logger.Warn("Publish: failed to encode notification %s: %v", notification.ID, err)
		return nil
	}
	if err := uc.broker.Publish(ctx, realtime.UserNotificationsChannel(notification.UserID), event); err != nil {
		logger.Warn("Publish: push failed for notification %s: %v", notification.ID, err)
	}

	return nil
}

func (uc *NotificationUseCase) Fetch(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	return uc.notificationRepo.Fetch(ctx, userID, limit)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) error {
	if err := uc.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		return err
	}

	event, err := realtime.NewEvent(realtime.EventUpdate, realtime.TableNotifications, map[string]interface{}{
		"id":     id,
		"isRead": true,
	})
	if err == nil {
		if err := uc.broker.Publish(ctx, realtime.UserNotificationsChannel(userID), event); err != nil {
			logger.Warn("MarkRead: push failed for notification %s: %v", id, err)
		}
	}

	return nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) error {
	if err := uc.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}

	// Bulk event carries no id; sessions reconcile by re-counting.
	event, err := realtime.NewEvent(realtime.EventUpdate, realtime.TableNotifications, map[string]string{
		"userId": userID,
	})
	if err == nil {
		if err := uc.broker.Publish(ctx, realtime.UserNotificationsChannel(userID), event); err != nil {
			logger.Warn("MarkAllRead: push failed for user %s: %v", userID, err)
		}
	}

	return nil
}

func (uc *NotificationUseCase) CountUnread(ctx context.Context, userID string) (int, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}
