package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

const logColumns = `id, student_id, date, week, title, content, attachments, status, feedback, created_at, updated_at`

// LogRepository manages persistence for weekly log entries.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs a LogRepository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// FindByID fetches a log entry by ID.
func (r *LogRepository) FindByID(ctx context.Context, id string) (*models.LogEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM logs WHERE id = $1 LIMIT 1`, logColumns)
	var log models.LogEntry
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find log by id: %w", err)
	}
	return &log, nil
}

// ListByStudent returns a student's logs, most recent date first.
func (r *LogRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LogEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM logs WHERE student_id = $1 ORDER BY date DESC, created_at DESC`, logColumns)
	var logs []models.LogEntry
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		return nil, fmt.Errorf("list logs by student: %w", err)
	}
	return logs, nil
}

// ListBySupervisor returns all logs belonging to a supervisor's students.
func (r *LogRepository) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.LogEntry, error) {
	query := fmt.Sprintf(`SELECT l.%s FROM logs l JOIN users u ON u.id = l.student_id WHERE u.supervisor_id = $1 ORDER BY l.date DESC, l.created_at DESC`,
		strings.ReplaceAll(logColumns, ", ", ", l."))
	var logs []models.LogEntry
	if err := r.db.SelectContext(ctx, &logs, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list logs by supervisor: %w", err)
	}
	return logs, nil
}

// CountByStudentAndStatus counts a student's logs per status.
func (r *LogRepository) CountByStudentAndStatus(ctx context.Context, studentID string, status models.LogStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM logs WHERE student_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, status); err != nil {
		return 0, fmt.Errorf("count logs by status: %w", err)
	}
	return count, nil
}

// CountByStudent counts all of a student's logs.
func (r *LogRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM logs WHERE student_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count logs by student: %w", err)
	}
	return count, nil
}

// StatusCounts returns organisation-wide totals per status.
func (r *LogRepository) StatusCounts(ctx context.Context) (map[models.LogStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM logs GROUP BY status`
	rows := []struct {
		Status models.LogStatus `db:"status"`
		Count  int              `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count logs by status: %w", err)
	}
	counts := make(map[models.LogStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create inserts a new log entry.
func (r *LogRepository) Create(ctx context.Context, log *models.LogEntry) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now
	const query = `INSERT INTO logs (id, student_id, date, week, title, content, attachments, status, feedback, created_at, updated_at)
VALUES (:id, :student_id, :date, :week, :title, :content, :attachments, :status, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// Update persists content fields together with status and feedback. The
// service layer owns transition rules; this writes whatever state it was
// handed.
func (r *LogRepository) Update(ctx context.Context, log *models.LogEntry) error {
	log.UpdatedAt = time.Now().UTC()
	const query = `UPDATE logs SET date = :date, week = :week, title = :title, content = :content,
attachments = :attachments, status = :status, feedback = :feedback, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("update log: %w", err)
	}
	return nil
}

// UpdateStatus sets the review status and feedback in one statement.
func (r *LogRepository) UpdateStatus(ctx context.Context, id string, status models.LogStatus, feedback *string) error {
	const query = `UPDATE logs SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, feedback, time.Now().UTC()); err != nil {
		return fmt.Errorf("update log status: %w", err)
	}
	return nil
}

// UpdateFeedback sets or clears the supervisor comment without touching the
// status.
func (r *LogRepository) UpdateFeedback(ctx context.Context, id string, feedback *string) error {
	const query = `UPDATE logs SET feedback = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, feedback, time.Now().UTC()); err != nil {
		return fmt.Errorf("update log feedback: %w", err)
	}
	return nil
}

// Delete removes a log entry.
func (r *LogRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM logs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}
