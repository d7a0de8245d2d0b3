package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type dashboardUserRepository interface {
	ListStudentsBySupervisor(ctx context.Context, supervisorID string) ([]models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	CountByItStatus(ctx context.Context, status models.ItStatus) (int, error)
}

type dashboardLogRepository interface {
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.LogEntry, error)
	StatusCounts(ctx context.Context) (map[models.LogStatus]int, error)
}

type recentEventLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.SystemEvent, error)
}

const (
	supervisorDashboardKey = "dashboard:supervisor:%s"
	adminDashboardKey      = "dashboard:admin"
)

// DashboardService composes supervisor and admin overviews, cached in Redis
// with a short TTL.
type DashboardService struct {
	users  dashboardUserRepository
	logs   dashboardLogRepository
	events recentEventLister
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(users dashboardUserRepository, logs dashboardLogRepository, events recentEventLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:  users,
		logs:   logs,
		events: events,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Supervisor returns a supervisor's overview: their students, the full log
// feed and the review backlog counters. The second return value reports
// whether the payload came from cache.
func (s *DashboardService) Supervisor(ctx context.Context, supervisorID string) (*models.SupervisorDashboard, bool, error) {
	key := fmt.Sprintf(supervisorDashboardKey, supervisorID)
	var cached models.SupervisorDashboard
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, err := s.users.ListStudentsBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	logs, err := s.logs.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}

	dashboard := &models.SupervisorDashboard{
		Students:    students,
		Logs:        logs,
		GeneratedAt: s.now().UTC(),
	}
	for _, log := range logs {
		if log.Status == models.LogStatusPending {
			dashboard.PendingLogs++
		}
	}
	for _, student := range students {
		if student.CurrentItStatus() == models.ItStatusAwaitingApproval {
			dashboard.AwaitingSign++
		}
	}

	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		s.logger.Warn("supervisor dashboard not cached", zap.Error(err))
	}
	return dashboard, false, nil
}

// Admin returns organisation-wide counters plus the recent activity feed.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	var cached models.AdminDashboard
	if hit, err := s.cache.Get(ctx, adminDashboardKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	supervisors, err := s.users.CountByRole(ctx, models.RoleSupervisor)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count supervisors")
	}
	completed, err := s.users.CountByItStatus(ctx, models.ItStatusCompleted)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed internships")
	}
	logCounts, err := s.logs.StatusCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count logs")
	}
	events, err := s.events.ListRecent(ctx, 50)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	dashboard := &models.AdminDashboard{
		TotalStudents:        students,
		TotalSupervisors:     supervisors,
		PendingLogs:          logCounts[models.LogStatusPending],
		ApprovedLogs:         logCounts[models.LogStatusApproved],
		RejectedLogs:         logCounts[models.LogStatusRejected],
		CompletedInternships: completed,
		RecentEvents:         events,
		GeneratedAt:          s.now().UTC(),
	}
	for _, count := range logCounts {
		dashboard.TotalLogs += count
	}

	if err := s.cache.Set(ctx, adminDashboardKey, dashboard, s.ttl); err != nil {
		s.logger.Warn("admin dashboard not cached", zap.Error(err))
	}
	return dashboard, false, nil
}

// RecentEvents exposes the raw activity feed for the admin screens.
func (s *DashboardService) RecentEvents(ctx context.Context, limit int) ([]models.SystemEvent, error) {
	events, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// InvalidateSupervisor drops a supervisor's cached dashboard.
func (s *DashboardService) InvalidateSupervisor(ctx context.Context, supervisorID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf(supervisorDashboardKey, supervisorID)); err != nil {
		s.logger.Warn("supervisor dashboard invalidation failed", zap.Error(err))
	}
}

// InvalidateAdmin drops the cached admin dashboard.
func (s *DashboardService) InvalidateAdmin(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, adminDashboardKey); err != nil {
		s.logger.Warn("admin dashboard invalidation failed", zap.Error(err))
	}
}
