package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

func TestNotificationRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "message", "read", "created_at", "log_id", "student_id", "type"}).
		AddRow("n-2", "sup-1", "New log submitted.", false, now, "log-1", nil, nil).
		AddRow("n-1", "sup-1", "Older entry.", true, now.Add(-time.Hour), nil, nil, nil)
	mock.ExpectQuery("SELECT .* FROM notifications WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs("sup-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByUser(context.Background(), "sup-1")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "n-2", notifications[0].ID)
	require.NotNil(t, notifications[0].LogID)
	assert.Equal(t, "log-1", *notifications[0].LogID)
	assert.Nil(t, notifications[1].LogID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{UserID: "sup-1", Message: "New log submitted."}
	require.NoError(t, repo.Create(context.Background(), notification))
	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCountUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE")).
		WithArgs("sup-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnread(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryDeleteByLogRefScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE log_id = $1 AND user_id = $2")).
		WithArgs("log-1", "sup-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByLogRef(context.Background(), "log-1", "sup-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryDeleteByLogRefAllAddressees(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE log_id = $1")).
		WithArgs("log-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByLogRef(context.Background(), "log-1", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE")).
		WithArgs("sup-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.MarkAllRead(context.Background(), "sup-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryClearRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE user_id = $1 AND read = TRUE")).
		WithArgs("sup-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ClearRead(context.Background(), "sup-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
