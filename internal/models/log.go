package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LogStatus is the review state of a weekly log entry.
type LogStatus string

const (
	LogStatusPending  LogStatus = "pending"
	LogStatusApproved LogStatus = "approved"
	LogStatusRejected LogStatus = "rejected"
)

// CanTransition reports whether a log may move to the next status. Review
// decisions are only taken on pending logs; a rejected log returns to
// pending when the student resubmits.
func (s LogStatus) CanTransition(next LogStatus) bool {
	switch s {
	case LogStatusPending:
		return next == LogStatusApproved || next == LogStatusRejected
	case LogStatusRejected:
		return next == LogStatusPending
	default:
		return false
	}
}

// Attachment is a named file reference on a log entry.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AttachmentList stores attachments as a jsonb column.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported attachment scan type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// LogEntry represents one weekly journal submission by a student.
type LogEntry struct {
	ID          string         `db:"id" json:"id"`
	StudentID   string         `db:"student_id" json:"student_id"`
	Date        time.Time      `db:"date" json:"date"`
	Week        int            `db:"week" json:"week"`
	Title       string         `db:"title" json:"title"`
	Content     string         `db:"content" json:"content"`
	Attachments AttachmentList `db:"attachments" json:"attachments"`
	Status      LogStatus      `db:"status" json:"status"`
	Feedback    *string        `db:"feedback" json:"feedback,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// LogFilter captures listing criteria for log entries.
type LogFilter struct {
	StudentID string
	Status    *LogStatus
	Page      int
	PageSize  int
}
