package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("notifications").Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) Fetch(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	query := r.client.Collection("notifications").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching notifications for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch notifications", err)
	}

	var notifications []*entity.Notification
	for _, doc := range docs {
		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			logger.Warn("Skipping malformed notification for user %s: %v", userID, err)
			continue
		}
		// Meta kind is decoded once here, at the boundary.
		notification.Kind = entity.DecodeKind(&notification)
		notifications = append(notifications, &notification)
	}

	return notifications, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	doc, err := r.client.Collection("notifications").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", nil)
		}
		return errors.Internal("Failed to get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return errors.Internal("Failed to parse notification data", err)
	}

	if notification.UserID != userID {
		return errors.Forbidden("Notification belongs to another user", nil)
	}
	if notification.IsRead {
		return nil
	}

	notification.IsRead = true
	_, err = r.client.Collection("notifications").Doc(id).Set(ctx, &notification)
	if err != nil {
		return errors.Internal("Failed to update notification", err)
	}

	return nil
}

// MarkAllRead is a bulk state transition, not a delete.
func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	query := r.client.Collection("notifications").
		Where("userId", "==", userID).
		Where("isRead", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to query unread notifications", err)
	}

	for _, doc := range docs {
		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			continue // Skip malformed documents
		}
		notification.IsRead = true
		if _, err := doc.Ref.Set(ctx, &notification); err != nil {
			return errors.Internal("Failed to mark notification read", err)
		}
	}

	return nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := r.client.Collection("notifications").
		Where("userId", "==", userID).
		Where("isRead", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count unread notifications", err)
	}

	return len(docs), nil
}
