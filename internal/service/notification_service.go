package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
)

type notificationReader interface {
	ListByRecipient(ctx context.Context, recipientUserID string, limit int) ([]models.Notification, error)
}

// NotificationService exposes a user's durable notification records. Writes
// stay inside the booking transaction; this path is read-only.
type NotificationService struct {
	repo   notificationReader
	logger *zap.Logger
}

// NewNotificationService instantiates NotificationService.
func NewNotificationService(repo notificationReader, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// ListForUser returns the user's notifications, newest first. The repository
// clamps limit to a sane range, so out-of-range values are not an error.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity")
	}
	list, err := s.repo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}
