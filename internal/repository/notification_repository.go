package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

// NotificationRepository provides persistence for user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	const query = `SELECT id, user_id, message, read, created_at, log_id, student_id, type
FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// Create appends a new unread notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, message, read, created_at, log_id, student_id, type)
VALUES (:id, :user_id, :message, :read, :created_at, :log_id, :student_id, :type)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead flips a single notification to read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread notification for a user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// ClearRead deletes every read notification for a user.
func (r *NotificationRepository) ClearRead(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1 AND read = TRUE`, userID); err != nil {
		return fmt.Errorf("clear read notifications: %w", err)
	}
	return nil
}

// DeleteByLogRef removes notifications referencing a log. When userID is
// non-empty the retraction is scoped to that addressee; otherwise every
// notification carrying the log reference is removed.
func (r *NotificationRepository) DeleteByLogRef(ctx context.Context, logID string, userID string) error {
	if userID == "" {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE log_id = $1`, logID); err != nil {
			return fmt.Errorf("delete notifications by log: %w", err)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE log_id = $1 AND user_id = $2`, logID, userID); err != nil {
		return fmt.Errorf("delete notifications by log and user: %w", err)
	}
	return nil
}
