package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/vetlink-api/internal/models"
)

// NotificationRepository persists durable notification records.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateTx writes the notification record inside the booking transaction so
// it commits or rolls back together with the appointment change.
func (r *NotificationRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO notifications (id, recipient_user_id, kind, appointment_id, appointment_date, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		n.ID, n.RecipientUserID, n.Kind, n.AppointmentID, n.AppointmentDate, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientUserID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT id, recipient_user_id, kind, appointment_id, appointment_date, created_at FROM notifications WHERE recipient_user_id = $1 ORDER BY created_at DESC LIMIT %d", limit)
	var list []models.Notification
	if err := r.db.SelectContext(ctx, &list, query, recipientUserID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}
