package service

import (
	"context"
	"fmt"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService defines the interface for notification business logic
type NotificationService interface {
	Notify(ctx context.Context, userID int64, notificationType domain.NotificationType, message string) (*domain.Notification, error)
	List(ctx context.Context, userID int64) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID int64) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new instance of NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Notify stores the notification and hands it to delivery
func (s *notificationService) Notify(ctx context.Context, userID int64, notificationType domain.NotificationType, message string) (*domain.Notification, error) {
	notification := domain.NewNotification(userID, notificationType, message)

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	result := notification.Dispatch()
	s.logger.Info("Notification dispatched",
		zap.Int64("user_id", userID),
		zap.String("notification_id", notification.ID.String()),
		zap.String("type", string(notification.GetType())),
		zap.Bool("delivered", result.Delivered),
	)

	return notification, nil
}

// List returns the user's notifications, newest first
func (s *notificationService) List(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read
func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID, userID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		if err == repository.ErrNotificationNotFound {
			return err
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
