package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func logRows(t *testing.T, logs ...models.LogEntry) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "week", "title", "content", "attachments", "status", "feedback", "created_at", "updated_at"})
	for _, l := range logs {
		attachments, err := l.Attachments.Value()
		require.NoError(t, err)
		rows.AddRow(l.ID, l.StudentID, l.Date, l.Week, l.Title, l.Content, attachments, string(l.Status), l.Feedback, l.CreatedAt, l.UpdatedAt)
	}
	return rows
}

func TestLogRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, date, week, title, content, attachments, status, feedback, created_at, updated_at FROM logs WHERE id = $1 LIMIT 1")).
		WithArgs("log-1").
		WillReturnRows(logRows(t, models.LogEntry{
			ID:          "log-1",
			StudentID:   "student-1",
			Date:        now,
			Week:        3,
			Title:       "Switch configuration",
			Content:     "Configured access switches.",
			Attachments: models.AttachmentList{{Name: "diagram.png", URL: "https://cdn/d.png"}},
			Status:      models.LogStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))

	log, err := repo.FindByID(context.Background(), "log-1")
	require.NoError(t, err)
	assert.Equal(t, "log-1", log.ID)
	assert.Equal(t, models.LogStatusPending, log.Status)
	require.Len(t, log.Attachments, 1)
	assert.Equal(t, "diagram.png", log.Attachments[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	mock.ExpectQuery("SELECT .* FROM logs WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, date, week, title, content, attachments, status, feedback, created_at, updated_at FROM logs WHERE student_id = $1 ORDER BY date DESC, created_at DESC")).
		WithArgs("student-1").
		WillReturnRows(logRows(t,
			models.LogEntry{ID: "log-2", StudentID: "student-1", Date: now, Week: 2, Status: models.LogStatusPending, CreatedAt: now, UpdatedAt: now},
			models.LogEntry{ID: "log-1", StudentID: "student-1", Date: now.Add(-7 * 24 * time.Hour), Week: 1, Status: models.LogStatusApproved, CreatedAt: now, UpdatedAt: now},
		))

	logs, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "log-2", logs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	mock.ExpectExec("INSERT INTO logs").WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.LogEntry{
		StudentID: "student-1",
		Date:      time.Now(),
		Week:      3,
		Title:     "Switch configuration",
		Content:   "Configured access switches.",
		Status:    models.LogStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), log))

	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	feedback := "Add the ticket numbers."
	mock.ExpectExec(regexp.QuoteMeta("UPDATE logs SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("log-1", models.LogStatusRejected, feedback, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "log-1", models.LogStatusRejected, &feedback)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 4).
		AddRow("approved", 20)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM logs GROUP BY status")).
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.LogStatusPending])
	assert.Equal(t, 20, counts[models.LogStatusApproved])
	assert.Zero(t, counts[models.LogStatusRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryCountByStudentAndStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM logs WHERE student_id = $1 AND status = $2")).
		WithArgs("student-1", models.LogStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByStudentAndStatus(context.Background(), "student-1", models.LogStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM logs WHERE id = $1")).
		WithArgs("log-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "log-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
