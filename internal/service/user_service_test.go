package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type mockUserRepo struct {
	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User
	usersByCode  map[string]*models.User

	created   []*models.User
	updated   []*models.User
	linked    [][2]string
	deleted   []string
	avatars   map[string]string
	createErr error
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{
		usersByID:    make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		usersByCode:  make(map[string]*models.User),
		avatars:      make(map[string]string),
	}
	for _, u := range users {
		m.add(u)
	}
	return m
}

func (m *mockUserRepo) add(user *models.User) {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user
	if user.SupervisorCode != nil {
		m.usersByCode[*user.SupervisorCode] = user
	}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindBySupervisorCode(_ context.Context, code string) (*models.User, error) {
	user, ok := m.usersByCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) ListStudentsBySupervisor(_ context.Context, supervisorID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.usersByID {
		if u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.usersByID {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.add(user)
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	return nil
}

func (m *mockUserRepo) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	m.avatars[id] = avatarURL
	return nil
}

func (m *mockUserRepo) LinkSupervisor(_ context.Context, studentID, supervisorID string) error {
	m.linked = append(m.linked, [2]string{studentID, supervisorID})
	return nil
}

func (m *mockUserRepo) DeleteCascade(_ context.Context, user *models.User) error {
	m.deleted = append(m.deleted, user.ID)
	delete(m.usersByID, user.ID)
	return nil
}

func TestUserServiceUpdateAppliesPartialChanges(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "ada@example.com", FirstName: "Ada", Surname: "Okafor", Role: models.RoleStudent, Active: true}
	repo := newMockUserRepo(user)
	svc := NewUserService(repo, &mockNotifier{}, zap.NewNop())

	inactive := false
	updated, err := svc.Update(context.Background(), "user-1", UpdateUserRequest{
		Surname: strPtr("Okafor-Eze"),
		Active:  &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Okafor-Eze", updated.Surname)
	assert.False(t, updated.Active)
	require.Len(t, repo.updated, 1)
}

func TestUserServiceLinkSupervisor(t *testing.T) {
	code := "SUPER-4G7KQ2"
	student := &models.User{ID: "student-1", Email: "ada@example.com", FirstName: "Ada", Surname: "Okafor", Role: models.RoleStudent}
	supervisor := &models.User{ID: "sup-1", Email: "sup@example.com", Role: models.RoleSupervisor, SupervisorCode: &code}
	repo := newMockUserRepo(student, supervisor)
	notifier := &mockNotifier{}
	svc := NewUserService(repo, notifier, zap.NewNop())

	linked, err := svc.LinkSupervisor(context.Background(), "student-1", LinkSupervisorRequest{SupervisorCode: " SUPER-4G7KQ2 "})
	require.NoError(t, err)

	require.NotNil(t, linked.SupervisorID)
	assert.Equal(t, "sup-1", *linked.SupervisorID)
	assert.Equal(t, [][2]string{{"student-1", "sup-1"}}, repo.linked)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "sup-1", notifier.sent[0].userID)
	assert.Equal(t, "student-1", notifier.sent[0].refs.StudentID)
}

func TestUserServiceLinkSupervisorInvalidCode(t *testing.T) {
	student := &models.User{ID: "student-1", Email: "ada@example.com", Role: models.RoleStudent}
	svc := NewUserService(newMockUserRepo(student), &mockNotifier{}, zap.NewNop())

	_, err := svc.LinkSupervisor(context.Background(), "student-1", LinkSupervisorRequest{SupervisorCode: "SUPER-NOPE00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceLinkSupervisorStudentsOnly(t *testing.T) {
	admin := &models.User{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
	svc := NewUserService(newMockUserRepo(admin), &mockNotifier{}, zap.NewNop())

	_, err := svc.LinkSupervisor(context.Background(), "admin-1", LinkSupervisorRequest{SupervisorCode: "SUPER-4G7KQ2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteCascades(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "ada@example.com", Role: models.RoleStudent}
	repo := newMockUserRepo(user)
	svc := NewUserService(repo, &mockNotifier{}, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "user-1"))
	assert.Equal(t, []string{"user-1"}, repo.deleted)

	err := svc.Delete(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "user-1", Email: "ada@example.com"})
	svc := NewUserService(repo, &mockNotifier{}, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceImportCSV(t *testing.T) {
	existing := &models.User{ID: "user-0", Email: "old@example.com", Role: models.RoleStudent}
	repo := newMockUserRepo(existing)
	svc := NewUserService(repo, &mockNotifier{}, zap.NewNop())

	input := strings.Join([]string{
		"first_name,surname,email,role,school,department,company_name,level",
		"Ada,Okafor,ada@example.com,student,Federal Polytechnic,Computer Science,,300",
		"Kofi,Mensah,kofi@example.com,supervisor,,,NetServe Ltd,",
		"Old,User,old@example.com,student,,,,",
		"Ada,Again,ada@example.com,student,,,,",
		"NoEmail,Row,,student,,,,",
		"Bad,Role,bad@example.com,manager,,,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Rows, 6)

	assert.Equal(t, "created", result.Rows[0].Status)
	assert.Equal(t, "created", result.Rows[1].Status)
	assert.Equal(t, "skipped", result.Rows[2].Status)
	assert.Equal(t, "email already registered", result.Rows[2].Message)
	assert.Equal(t, "duplicate email within file", result.Rows[3].Message)

	require.Len(t, repo.created, 2)
	student := repo.created[0]
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.NotEmpty(t, student.PasswordHash)
	require.NotNil(t, student.ItStatus)
	assert.Equal(t, models.ItStatusOngoing, *student.ItStatus)
	require.NotNil(t, student.Level)
	assert.Equal(t, 300, *student.Level)

	supervisor := repo.created[1]
	require.NotNil(t, supervisor.SupervisorCode)
	assert.True(t, strings.HasPrefix(*supervisor.SupervisorCode, "SUPER-"))
	require.NotNil(t, supervisor.CompanyName)
	assert.Equal(t, "NetServe Ltd", *supervisor.CompanyName)
}

func TestUserServiceImportCSVRequiresColumns(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), &mockNotifier{}, zap.NewNop())

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("first_name,surname,email\nAda,Okafor,ada@example.com"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceImportCSVDatabaseFailureSkipsRow(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = assert.AnError
	svc := NewUserService(repo, &mockNotifier{}, zap.NewNop())

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(
		"first_name,surname,email,role\nAda,Okafor,ada@example.com,student"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "database rejected the row", result.Rows[0].Message)
}

func TestUserServiceUpdateAvatarRequiresURL(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), &mockNotifier{}, zap.NewNop())

	err := svc.UpdateAvatar(context.Background(), "user-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
