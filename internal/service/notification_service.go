package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type notificationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	ClearRead(ctx context.Context, userID string) error
	DeleteByLogRef(ctx context.Context, logID string, userID string) error
}

// NotificationRefs carries the optional back-references a notification may
// point at.
type NotificationRefs struct {
	LogID     string
	StudentID string
	Type      models.NotificationType
}

// NotificationService is the dispatcher for per-user notifications.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Notify appends an unread notification for the user. Retried deliveries are
// not deduplicated.
func (s *NotificationService) Notify(ctx context.Context, userID, message string, refs NotificationRefs) (*models.Notification, error) {
	if userID == "" || message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification requires a user and a message")
	}
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
	}
	if refs.LogID != "" {
		notification.LogID = &refs.LogID
	}
	if refs.StudentID != "" {
		notification.StudentID = &refs.StudentID
	}
	if refs.Type != "" {
		t := refs.Type
		notification.Type = &t
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return notification, nil
}

// RetractByLogRef deletes notifications referencing the log, optionally
// scoped to a single addressee. Used to keep a supervisor's inbox free of
// stale review entries once a log leaves pending.
func (s *NotificationService) RetractByLogRef(ctx context.Context, logID, userID string) error {
	if logID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "log reference required")
	}
	if err := s.repo.DeleteByLogRef(ctx, logID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retract notifications")
	}
	return nil
}

// List returns a user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips a single notification to read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread notification for the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// ClearRead deletes every read notification for the user.
func (s *NotificationService) ClearRead(ctx context.Context, userID string) error {
	if err := s.repo.ClearRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return nil
}
