package models

import "time"

// SystemEventType enumerates auditable workflow milestones.
type SystemEventType string

const (
	EventUserRegistered   SystemEventType = "user_registered"
	EventLogSubmitted     SystemEventType = "log_submitted"
	EventLogApproved      SystemEventType = "log_approved"
	EventLogbookFinalized SystemEventType = "logbook_finalized"
)

// SystemEvent records a workflow milestone for the admin activity feed.
type SystemEvent struct {
	ID        string          `db:"id" json:"id"`
	Type      SystemEventType `db:"type" json:"type"`
	Message   string          `db:"message" json:"message"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
}
