package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindBySupervisorCode(ctx context.Context, code string) (*models.User, error)
	ListStudentsBySupervisor(ctx context.Context, supervisorID string) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	LinkSupervisor(ctx context.Context, studentID, supervisorID string) error
	DeleteCascade(ctx context.Context, user *models.User) error
}

// UpdateUserRequest carries admin-editable profile fields.
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1"`
	Surname     *string `json:"surname" validate:"omitempty,min=1"`
	Active      *bool   `json:"active"`
	Gender      *string `json:"gender"`
	School      *string `json:"school"`
	Faculty     *string `json:"faculty"`
	Department  *string `json:"department"`
	Level       *int    `json:"level" validate:"omitempty,gt=0"`
	CompanyName *string `json:"company_name"`
	CompanyRole *string `json:"company_role"`
}

// LinkSupervisorRequest links a student to a supervisor by shareable code.
type LinkSupervisorRequest struct {
	SupervisorCode string `json:"supervisor_code" validate:"required"`
}

// BulkImportRowResult reports the outcome of one CSV row.
type BulkImportRowResult struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BulkImportResult summarises a CSV user import.
type BulkImportResult struct {
	Created int                   `json:"created"`
	Skipped int                   `json:"skipped"`
	Rows    []BulkImportRowResult `json:"rows"`
}

// UserService covers user administration: listing, profile updates, supervisor
// linking, cascading deletion and bulk CSV onboarding.
type UserService struct {
	repo     userRepository
	notifier notificationDispatcher
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, notifier notificationDispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repo:     repo,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns users filtered and paginated for the admin screens.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListStudents returns a supervisor's linked students.
func (s *UserService) ListStudents(ctx context.Context, supervisorID string) ([]models.User, error) {
	students, err := s.repo.ListStudentsBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Update applies admin-editable profile changes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.School != nil {
		user.School = req.School
	}
	if req.Faculty != nil {
		user.Faculty = req.Faculty
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.Level != nil {
		user.Level = req.Level
	}
	if req.CompanyName != nil {
		user.CompanyName = req.CompanyName
	}
	if req.CompanyRole != nil {
		user.CompanyRole = req.CompanyRole
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// UpdateAvatar stores a new avatar URL for the user.
func (s *UserService) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	if avatarURL == "" {
		return appErrors.Clone(appErrors.ErrValidation, "avatar url is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateAvatar(ctx, id, avatarURL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update avatar")
	}
	return nil
}

// LinkSupervisor connects a student to the supervisor owning the code and
// tells the supervisor about it.
func (s *UserService) LinkSupervisor(ctx context.Context, studentID string, req LinkSupervisorRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can link a supervisor")
	}

	supervisor, err := s.repo.FindBySupervisorCode(ctx, strings.TrimSpace(req.SupervisorCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid supervisor code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up supervisor code")
	}

	if err := s.repo.LinkSupervisor(ctx, student.ID, supervisor.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link supervisor")
	}
	student.SupervisorID = &supervisor.ID

	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, supervisor.ID,
			fmt.Sprintf("%s has added you as their supervisor.", student.FullName()),
			NotificationRefs{StudentID: student.ID}); err != nil {
			s.logger.Warn("supervisor link notification failed", zap.Error(err))
		}
	}

	return student, nil
}

// Delete removes a user and their dependent data. Students lose their logs
// and the notifications referencing them; supervisors leave their students
// unlinked but intact.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return nil
}

// csv column order: first_name, surname, email, role, and then role specific
// columns school, department, company_name.
var bulkImportHeader = []string{"first_name", "surname", "email", "role", "school", "department", "company_name"}

// ImportCSV onboards users in bulk from a CSV stream. Rows fail
// independently; the import never aborts halfway.
func (s *UserService) ImportCSV(ctx context.Context, r io.Reader) (*BulkImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv file is empty or unreadable")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range bulkImportHeader[:4] {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("csv is missing the %q column", required))
		}
	}

	result := &BulkImportResult{}
	seen := make(map[string]bool)

	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Skipped++
			result.Rows = append(result.Rows, BulkImportRowResult{Row: rowNum, Status: "skipped", Message: "malformed row"})
			continue
		}

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		email := strings.ToLower(field("email"))
		rowResult := BulkImportRowResult{Row: rowNum, Email: email}

		skip := func(message string) {
			rowResult.Status = "skipped"
			rowResult.Message = message
			result.Skipped++
			result.Rows = append(result.Rows, rowResult)
		}

		if email == "" || field("first_name") == "" || field("surname") == "" {
			skip("first_name, surname and email are required")
			continue
		}
		if seen[email] {
			skip("duplicate email within file")
			continue
		}
		seen[email] = true

		role := models.UserRole(strings.ToLower(field("role")))
		if role != models.RoleStudent && role != models.RoleSupervisor {
			skip("role must be student or supervisor")
			continue
		}

		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			skip("email already registered")
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}

		user, err := s.buildImportedUser(email, role, field)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, user); err != nil {
			skip("database rejected the row")
			s.logger.Warn("bulk import row failed", zap.Int("row", rowNum), zap.Error(err))
			continue
		}

		rowResult.Status = "created"
		result.Created++
		result.Rows = append(result.Rows, rowResult)
	}

	s.logger.Info("bulk user import finished",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *UserService) buildImportedUser(email string, role models.UserRole, field func(string) string) (*models.User, error) {
	password, err := generateTemporaryPassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    field("first_name"),
		Surname:      field("surname"),
		Role:         role,
		Active:       true,
	}

	switch role {
	case models.RoleStudent:
		status := models.ItStatusOngoing
		user.ItStatus = &status
		user.School = optional(field("school"))
		user.Department = optional(field("department"))
		if level, err := strconv.Atoi(field("level")); err == nil && level > 0 {
			user.Level = &level
		}
	case models.RoleSupervisor:
		code, err := generateSupervisorCode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate supervisor code")
		}
		user.SupervisorCode = &code
		user.CompanyName = optional(field("company_name"))
	}

	return user, nil
}

func generateTemporaryPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
