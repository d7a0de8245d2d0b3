package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	usersByCode  map[string]*models.User
	tokens       map[string]*models.RefreshToken

	created        []*models.User
	createErrs     []error
	revokedTokens  []string
	revokedForUser []string
	lastLogins     []string
	passwords      map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[string]*models.User),
		usersByCode:  make(map[string]*models.User),
		tokens:       make(map[string]*models.RefreshToken),
		passwords:    make(map[string]string),
	}
}

func (m *mockAuthRepo) addUser(user *models.User) {
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	if user.SupervisorCode != nil {
		m.usersByCode[*user.SupervisorCode] = user
	}
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindBySupervisorCode(_ context.Context, code string) (*models.User, error) {
	user, ok := m.usersByCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) Create(_ context.Context, user *models.User) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if user.ID == "" {
		user.ID = "user-new"
	}
	m.addUser(user)
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func (m *mockAuthRepo) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	m.passwords[id] = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.revokedForUser = append(m.revokedForUser, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	m.revokedTokens = append(m.revokedTokens, id)
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func authTestConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "it-logbook-api",
	}
}

func newAuthFixture(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, &mockEventSink{}, &mockNotifier{}, nil, zap.NewNop(), authTestConfig())
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, id, email, password string) *models.User {
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hashPassword(t, password),
		FirstName:    "Tolu",
		Surname:      "Adeyemi",
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func TestAuthServiceRegisterStudent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		Surname:   "Okafor",
		Role:      models.RoleStudent,
		School:    "Federal Polytechnic",
		Level:     300,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	require.NotNil(t, user.ItStatus)
	assert.Equal(t, models.ItStatusOngoing, *user.ItStatus)
	require.NotNil(t, user.School)
	require.NotNil(t, user.Level)
	assert.Nil(t, user.SupervisorCode)
	require.Len(t, repo.created, 1)
}

func TestAuthServiceRegisterSupervisorGetsCode(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "mensah@example.com",
		Password:    "password123",
		FirstName:   "Kofi",
		Surname:     "Mensah",
		Role:        models.RoleSupervisor,
		CompanyName: "NetServe Ltd",
	})
	require.NoError(t, err)

	require.NotNil(t, user.SupervisorCode)
	assert.True(t, strings.HasPrefix(*user.SupervisorCode, "SUPER-"))
	assert.Len(t, *user.SupervisorCode, len("SUPER-")+6)
	assert.Nil(t, user.ItStatus)
}

func supervisorCodeViolation() error {
	return fmt.Errorf("create user: %w", &pq.Error{Code: "23505", Constraint: "users_supervisor_code_key"})
}

func TestAuthServiceRegisterRegeneratesCodeOnCollision(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createErrs = []error{supervisorCodeViolation()}
	svc := newAuthFixture(repo)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "mensah@example.com",
		Password:  "password123",
		FirstName: "Kofi",
		Surname:   "Mensah",
		Role:      models.RoleSupervisor,
	})
	require.NoError(t, err)

	require.NotNil(t, user.SupervisorCode)
	assert.True(t, strings.HasPrefix(*user.SupervisorCode, "SUPER-"))
	assert.Len(t, repo.created, 1)
}

func TestAuthServiceRegisterGivesUpAfterRepeatedCodeCollisions(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createErrs = []error{supervisorCodeViolation(), supervisorCodeViolation(), supervisorCodeViolation()}
	svc := newAuthFixture(repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "mensah@example.com",
		Password:  "password123",
		FirstName: "Kofi",
		Surname:   "Mensah",
		Role:      models.RoleSupervisor,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAuthServiceRegisterLinksSupervisorByCode(t *testing.T) {
	repo := newMockAuthRepo()
	code := "SUPER-4G7KQ2"
	repo.addUser(&models.User{ID: "sup-1", Email: "sup@example.com", Role: models.RoleSupervisor, SupervisorCode: &code})
	notifier := &mockNotifier{}
	svc := NewAuthService(repo, &mockEventSink{}, notifier, nil, zap.NewNop(), authTestConfig())

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:          "ada@example.com",
		Password:       "password123",
		FirstName:      "Ada",
		Surname:        "Okafor",
		Role:           models.RoleStudent,
		SupervisorCode: code,
	})
	require.NoError(t, err)

	require.NotNil(t, user.SupervisorID)
	assert.Equal(t, "sup-1", *user.SupervisorID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "sup-1", notifier.sent[0].userID)
	assert.Equal(t, user.ID, notifier.sent[0].refs.StudentID)
}

func TestAuthServiceRegisterRejectsUnknownCode(t *testing.T) {
	svc := newAuthFixture(newMockAuthRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:          "ada@example.com",
		Password:       "password123",
		FirstName:      "Ada",
		Surname:        "Okafor",
		Role:           models.RoleStudent,
		SupervisorCode: "SUPER-XXXXXX",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		Surname:   "Okafor",
		Role:      models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterRejectsAdminRole(t *testing.T) {
	svc := newAuthFixture(newMockAuthRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "root@example.com",
		Password:  "password123",
		FirstName: "Root",
		Surname:   "User",
		Role:      models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginIssuesTokenPair(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, []string{"user-1"}, repo.lastLogins)
	require.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "Tolu Adeyemi", claims.FullName)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "nope-nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := activeUser(t, "user-1", "ada@example.com", "password123")
	user.Active = false
	repo.addUser(user)
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	repo.tokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := newAuthFixture(repo)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedTokens, "rt-1")
}

func TestAuthServiceRefreshRejectsExpiredToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	repo.tokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := newAuthFixture(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutOnlyOwnToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.tokens["tok"] = &models.RefreshToken{ID: "rt-1", UserID: "user-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthFixture(repo)

	err := svc.Logout(context.Background(), "tok", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "tok", "user-1"))
	assert.Equal(t, []string{"rt-1"}, repo.revokedTokens)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword456",
	})
	require.NoError(t, err)

	assert.Contains(t, repo.passwords, "user-1")
	assert.Equal(t, []string{"user-1"}, repo.revokedForUser)
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "wrong-old",
		NewPassword: "newpassword456",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(activeUser(t, "user-1", "ada@example.com", "password123"))
	svc := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Minute,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
