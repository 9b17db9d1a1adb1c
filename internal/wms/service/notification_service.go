package service

import (
	"context"
	"fmt"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService fans workflow events out to user inboxes and serves
// the inbox read side. Dispatch is best effort: callers fire it after their
// transaction commits and only log failures.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, userRepo *repository.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

// NotifyUser writes one inbox row.
func (s *NotificationService) NotifyUser(ctx context.Context, userID, message string) error {
	return s.NotifyUsers(ctx, []string{userID}, message)
}

// NotifyUsers writes one row per recipient in a single batched insert.
func (s *NotificationService) NotifyUsers(ctx context.Context, userIDs []string, message string) error {
	if len(userIDs) == 0 {
		return nil
	}

	notifications := make([]entity.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, entity.Notification{
			ID:      uuid.New().String(),
			UserID:  userID,
			Message: message,
			Status:  entity.NotificationUnread,
		})
	}

	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// NotifyRole delivers the message to every member of a role. A role with no
// members is a no-op, not an error.
func (s *NotificationService) NotifyRole(ctx context.Context, role, message string) error {
	users, err := s.userRepo.FindByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to resolve role %s: %w", role, err)
	}
	if len(users) == 0 {
		s.logger.Debug("no recipients for role notification", zap.String("role", role))
		return nil
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}
	return s.NotifyUsers(ctx, userIDs, message)
}

// ListInbox returns one user's notifications, newest first.
func (s *NotificationService) ListInbox(ctx context.Context, userID string, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.notificationRepo.FindByUser(ctx, userID, page, pageSize)
}

// UnreadCount returns the badge count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead flips one of the user's own notifications to Read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}
