package models

import "time"

// NotificationType distinguishes workflow notifications that carry extra
// meaning for the client.
type NotificationType string

const (
	NotificationTypeFinalReviewRequest NotificationType = "final_review_request"
)

// Notification is addressed to exactly one user. LogID is a weak reference
// used only to retract stale entries when a log leaves review.
type Notification struct {
	ID        string            `db:"id" json:"id"`
	UserID    string            `db:"user_id" json:"user_id"`
	Message   string            `db:"message" json:"message"`
	Read      bool              `db:"read" json:"read"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	LogID     *string           `db:"log_id" json:"log_id,omitempty"`
	StudentID *string           `db:"student_id" json:"student_id,omitempty"`
	Type      *NotificationType `db:"type" json:"type,omitempty"`
}
