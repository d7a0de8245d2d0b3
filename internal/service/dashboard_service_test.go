package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	delete(s.store, pattern)
	return nil
}

type mockDashboardUsers struct {
	students    []models.User
	roleCounts  map[models.UserRole]int
	completed   int
	listCalls   int
	countCalls  int
	statusCalls int
}

func (m *mockDashboardUsers) ListStudentsBySupervisor(_ context.Context, _ string) ([]models.User, error) {
	m.listCalls++
	return m.students, nil
}

func (m *mockDashboardUsers) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	m.countCalls++
	return m.roleCounts[role], nil
}

func (m *mockDashboardUsers) CountByItStatus(_ context.Context, _ models.ItStatus) (int, error) {
	m.statusCalls++
	return m.completed, nil
}

type mockDashboardLogs struct {
	logs   []models.LogEntry
	counts map[models.LogStatus]int
}

func (m *mockDashboardLogs) ListBySupervisor(_ context.Context, _ string) ([]models.LogEntry, error) {
	return m.logs, nil
}

func (m *mockDashboardLogs) StatusCounts(_ context.Context) (map[models.LogStatus]int, error) {
	return m.counts, nil
}

type mockEventLister struct {
	events []models.SystemEvent
	limits []int
}

func (m *mockEventLister) ListRecent(_ context.Context, limit int) ([]models.SystemEvent, error) {
	m.limits = append(m.limits, limit)
	return m.events, nil
}

func dashboardFixture(users *mockDashboardUsers, logs *mockDashboardLogs, events *mockEventLister) *DashboardService {
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(users, logs, events, cacheSvc, time.Minute, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestDashboardSupervisorCountsBacklog(t *testing.T) {
	users := &mockDashboardUsers{students: []models.User{
		{ID: "s1", Role: models.RoleStudent, ItStatus: itStatus(models.ItStatusAwaitingApproval)},
		{ID: "s2", Role: models.RoleStudent, ItStatus: itStatus(models.ItStatusOngoing)},
	}}
	logs := &mockDashboardLogs{logs: []models.LogEntry{
		{ID: "l1", Status: models.LogStatusPending},
		{ID: "l2", Status: models.LogStatusApproved},
		{ID: "l3", Status: models.LogStatusPending},
	}}
	svc := dashboardFixture(users, logs, &mockEventLister{})

	dashboard, cached, err := svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)

	assert.False(t, cached)
	assert.Equal(t, 2, dashboard.PendingLogs)
	assert.Equal(t, 1, dashboard.AwaitingSign)
	assert.Len(t, dashboard.Students, 2)
	assert.Len(t, dashboard.Logs, 3)
}

func TestDashboardSupervisorServedFromCache(t *testing.T) {
	users := &mockDashboardUsers{}
	svc := dashboardFixture(users, &mockDashboardLogs{}, &mockEventLister{})

	_, cached, err := svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, users.listCalls)

	_, cached, err = svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, users.listCalls)
}

func TestDashboardInvalidateSupervisorForcesRebuild(t *testing.T) {
	users := &mockDashboardUsers{}
	svc := dashboardFixture(users, &mockDashboardLogs{}, &mockEventLister{})

	_, _, err := svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)

	svc.InvalidateSupervisor(context.Background(), "sup-1")

	_, cached, err := svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, users.listCalls)
}

func TestDashboardAdminAggregates(t *testing.T) {
	users := &mockDashboardUsers{
		roleCounts: map[models.UserRole]int{models.RoleStudent: 40, models.RoleSupervisor: 8},
		completed:  5,
	}
	logs := &mockDashboardLogs{counts: map[models.LogStatus]int{
		models.LogStatusPending:  7,
		models.LogStatusApproved: 120,
		models.LogStatusRejected: 3,
	}}
	events := &mockEventLister{events: []models.SystemEvent{{Type: models.EventLogApproved}}}
	svc := dashboardFixture(users, logs, events)

	dashboard, cached, err := svc.Admin(context.Background())
	require.NoError(t, err)

	assert.False(t, cached)
	assert.Equal(t, 40, dashboard.TotalStudents)
	assert.Equal(t, 8, dashboard.TotalSupervisors)
	assert.Equal(t, 130, dashboard.TotalLogs)
	assert.Equal(t, 7, dashboard.PendingLogs)
	assert.Equal(t, 120, dashboard.ApprovedLogs)
	assert.Equal(t, 3, dashboard.RejectedLogs)
	assert.Equal(t, 5, dashboard.CompletedInternships)
	assert.Len(t, dashboard.RecentEvents, 1)
	assert.Equal(t, []int{50}, events.limits)
}

func TestDashboardRecentEventsPassesLimit(t *testing.T) {
	events := &mockEventLister{}
	svc := dashboardFixture(&mockDashboardUsers{}, &mockDashboardLogs{}, events)

	_, err := svc.RecentEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, events.limits)
}

func TestDashboardWorksWithCachingDisabled(t *testing.T) {
	users := &mockDashboardUsers{}
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewDashboardService(users, &mockDashboardLogs{}, &mockEventLister{}, cacheSvc, time.Minute, zap.NewNop())

	_, cached, err := svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Supervisor(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, users.listCalls)
}
