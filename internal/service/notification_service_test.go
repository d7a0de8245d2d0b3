package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications []models.Notification
	deletions     []retraction
	createErr     error
	deleteErr     error
	marked        []string
	markedAll     []string
	cleared       []string
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	m.marked = append(m.marked, id)
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	m.markedAll = append(m.markedAll, userID)
	return nil
}

func (m *mockNotificationRepo) ClearRead(_ context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	return nil
}

func (m *mockNotificationRepo) DeleteByLogRef(_ context.Context, logID string, userID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletions = append(m.deletions, retraction{logID: logID, userID: userID})
	return nil
}

func TestNotificationServiceNotifySetsRefs(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	notification, err := svc.Notify(context.Background(), "sup-1", "New log submitted.", NotificationRefs{
		LogID:     "log-1",
		StudentID: "student-1",
		Type:      models.NotificationTypeFinalReviewRequest,
	})
	require.NoError(t, err)

	require.NotNil(t, notification.LogID)
	assert.Equal(t, "log-1", *notification.LogID)
	require.NotNil(t, notification.StudentID)
	assert.Equal(t, "student-1", *notification.StudentID)
	require.NotNil(t, notification.Type)
	assert.Equal(t, models.NotificationTypeFinalReviewRequest, *notification.Type)
	require.Len(t, repo.notifications, 1)
}

func TestNotificationServiceNotifyOmitsEmptyRefs(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	notification, err := svc.Notify(context.Background(), "student-1", "Internship complete.", NotificationRefs{})
	require.NoError(t, err)
	assert.Nil(t, notification.LogID)
	assert.Nil(t, notification.StudentID)
	assert.Nil(t, notification.Type)
}

func TestNotificationServiceNotifyRequiresUserAndMessage(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, zap.NewNop())

	_, err := svc.Notify(context.Background(), "", "hello", NotificationRefs{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Notify(context.Background(), "user-1", "", NotificationRefs{})
	require.Error(t, err)
}

func TestNotificationServiceRetractByLogRef(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	require.NoError(t, svc.RetractByLogRef(context.Background(), "log-1", "sup-1"))
	require.NoError(t, svc.RetractByLogRef(context.Background(), "log-1", ""))

	assert.Equal(t, []retraction{
		{logID: "log-1", userID: "sup-1"},
		{logID: "log-1", userID: ""},
	}, repo.deletions)
}

func TestNotificationServiceRetractRequiresLogRef(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, zap.NewNop())

	err := svc.RetractByLogRef(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceUnreadCount(t *testing.T) {
	repo := &mockNotificationRepo{notifications: []models.Notification{
		{UserID: "user-1", Read: false},
		{UserID: "user-1", Read: true},
		{UserID: "user-2", Read: false},
	}}
	svc := NewNotificationService(repo, zap.NewNop())

	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationServiceReadStateHelpers(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), "n-1"))
	require.NoError(t, svc.MarkAllRead(context.Background(), "user-1"))
	require.NoError(t, svc.ClearRead(context.Background(), "user-1"))

	assert.Equal(t, []string{"n-1"}, repo.marked)
	assert.Equal(t, []string{"user-1"}, repo.markedAll)
	assert.Equal(t, []string{"user-1"}, repo.cleared)
}
