package models

import "time"

// SupervisorDashboard aggregates a supervisor's students and their logs.
type SupervisorDashboard struct {
	Students     []User     `json:"students"`
	Logs         []LogEntry `json:"logs"`
	PendingLogs  int        `json:"pending_logs"`
	AwaitingSign int        `json:"awaiting_sign_off"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// SystemMetrics is a lightweight runtime snapshot for the admin dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	LogSubmissions           uint64    `json:"log_submissions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// AdminDashboard aggregates organisation-wide counters and recent activity.
type AdminDashboard struct {
	TotalStudents        int           `json:"total_students"`
	TotalSupervisors     int           `json:"total_supervisors"`
	TotalLogs            int           `json:"total_logs"`
	PendingLogs          int           `json:"pending_logs"`
	ApprovedLogs         int           `json:"approved_logs"`
	RejectedLogs         int           `json:"rejected_logs"`
	CompletedInternships int           `json:"completed_internships"`
	RecentEvents         []SystemEvent `json:"recent_events"`
	GeneratedAt          time.Time     `json:"generated_at"`
}
