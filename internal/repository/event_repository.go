package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

// EventRepository stores the system activity feed.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create appends a system event.
func (r *EventRepository) Create(ctx context.Context, event *models.SystemEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO system_events (id, type, message, timestamp) VALUES (:id, :type, :message, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create system event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events up to limit.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]models.SystemEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, type, message, timestamp FROM system_events ORDER BY timestamp DESC LIMIT %d`, limit)
	var events []models.SystemEvent
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list system events: %w", err)
	}
	return events, nil
}
