package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleSupervisor UserRole = "supervisor"
	RoleAdmin      UserRole = "admin"
)

// ItStatus tracks a student's progress through the internship programme.
type ItStatus string

const (
	ItStatusOngoing          ItStatus = "ongoing"
	ItStatusAwaitingApproval ItStatus = "awaiting_approval"
	ItStatusCompleted        ItStatus = "completed"
)

// CanTransition reports whether the internship status may move to next.
// Completed is terminal.
func (s ItStatus) CanTransition(next ItStatus) bool {
	switch s {
	case ItStatusOngoing:
		return next == ItStatusAwaitingApproval
	case ItStatusAwaitingApproval:
		return next == ItStatusOngoing || next == ItStatusCompleted
	default:
		return false
	}
}

// Locked reports whether the student's logbook is frozen against log
// creation, edits and deletion.
func (s ItStatus) Locked() bool {
	return s == ItStatusAwaitingApproval || s == ItStatusCompleted
}

// User represents an application user stored in the users table. Student and
// supervisor specific columns are nullable and only populated for the
// matching role.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	Surname      string     `db:"surname" json:"surname"`
	Role         UserRole   `db:"role" json:"role"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Student profile.
	SupervisorID         *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Gender               *string   `db:"gender" json:"gender,omitempty"`
	School               *string   `db:"school" json:"school,omitempty"`
	Faculty              *string   `db:"faculty" json:"faculty,omitempty"`
	Department           *string   `db:"department" json:"department,omitempty"`
	Level                *int      `db:"level" json:"level,omitempty"`
	ItStatus             *ItStatus `db:"it_status" json:"it_status,omitempty"`
	FinalSummary         *string   `db:"final_summary" json:"final_summary,omitempty"`
	SupervisorEvaluation *string   `db:"supervisor_evaluation" json:"supervisor_evaluation,omitempty"`

	// Supervisor profile.
	SupervisorCode *string `db:"supervisor_code" json:"supervisor_code,omitempty"`
	CompanyName    *string `db:"company_name" json:"company_name,omitempty"`
	CompanyRole    *string `db:"company_role" json:"company_role,omitempty"`
}

// FullName joins first name and surname for display and notifications.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.Surname
	}
	if u.Surname == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.Surname
}

// CurrentItStatus returns the internship status, defaulting to Ongoing for
// student rows created before the column existed.
func (u *User) CurrentItStatus() ItStatus {
	if u.ItStatus == nil {
		return ItStatusOngoing
	}
	return *u.ItStatus
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
