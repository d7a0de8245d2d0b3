package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

// email and supervisor_code carry unique indexes; a collision on insert
// surfaces as a pq unique violation (code 23505).
const userColumns = `id, email, password_hash, first_name, surname, role, avatar_url, active, last_login, created_at, updated_at,
supervisor_id, gender, school, faculty, department, level, it_status, final_summary, supervisor_evaluation,
supervisor_code, company_name, company_role`

// UserRepository provides database access for user records.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindBySupervisorCode looks up the supervisor owning the given code.
func (r *UserRepository) FindBySupervisorCode(ctx context.Context, code string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE supervisor_code = $1 AND role = $2 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, code, models.RoleSupervisor); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find supervisor by code: %w", err)
	}
	return &user, nil
}

// ListStudentsBySupervisor returns all students linked to a supervisor.
func (r *UserRepository) ListStudentsBySupervisor(ctx context.Context, supervisorID string) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE supervisor_id = $1 AND role = $2 ORDER BY surname, first_name`, userColumns)
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, supervisorID, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list students by supervisor: %w", err)
	}
	return students, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(first_name || ' ' || surname) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"email":      true,
		"surname":    true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// CountByRole counts users holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}

// CountByItStatus counts students in the given internship status.
func (r *UserRepository) CountByItStatus(ctx context.Context, status models.ItStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND it_status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RoleStudent, status); err != nil {
		return 0, fmt.Errorf("count users by it status: %w", err)
	}
	return count, nil
}

// Create inserts a new user profile.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, first_name, surname, role, avatar_url, active, created_at, updated_at,
supervisor_id, gender, school, faculty, department, level, it_status, final_summary, supervisor_evaluation,
supervisor_code, company_name, company_role)
VALUES (:id, :email, :password_hash, :first_name, :surname, :role, :avatar_url, :active, :created_at, :updated_at,
:supervisor_id, :gender, :school, :faculty, :department, :level, :it_status, :final_summary, :supervisor_evaluation,
:supervisor_code, :company_name, :company_role)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update updates mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET first_name = :first_name, surname = :surname, role = :role, active = :active,
gender = :gender, school = :school, faculty = :faculty, department = :department, level = :level,
company_name = :company_name, company_role = :company_role, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateAvatar stores a new avatar URL.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	const query = `UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, avatarURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

// LinkSupervisor sets the student's supervisor reference.
func (r *UserRepository) LinkSupervisor(ctx context.Context, studentID, supervisorID string) error {
	const query = `UPDATE users SET supervisor_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, supervisorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link supervisor: %w", err)
	}
	return nil
}

// SetFinalReview moves the student into the given internship status and
// stores the final summary in one statement.
func (r *UserRepository) SetFinalReview(ctx context.Context, studentID string, status models.ItStatus, finalSummary string) error {
	const query = `UPDATE users SET it_status = $2, final_summary = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, status, finalSummary, time.Now().UTC()); err != nil {
		return fmt.Errorf("set final review: %w", err)
	}
	return nil
}

// SetItStatus updates only the internship status.
func (r *UserRepository) SetItStatus(ctx context.Context, studentID string, status models.ItStatus) error {
	const query = `UPDATE users SET it_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set it status: %w", err)
	}
	return nil
}

// SetSignOff stores the supervisor evaluation together with the resulting
// internship status.
func (r *UserRepository) SetSignOff(ctx context.Context, studentID string, status models.ItStatus, evaluation string) error {
	const query = `UPDATE users SET it_status = $2, supervisor_evaluation = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, status, evaluation, time.Now().UTC()); err != nil {
		return fmt.Errorf("set sign off: %w", err)
	}
	return nil
}

// DeleteCascade removes a user together with their dependent rows in a
// single transaction. Student deletion drops their logs and any
// notifications referencing those logs; supervisor deletion unlinks their
// students but never deletes them.
func (r *UserRepository) DeleteCascade(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	switch user.Role {
	case models.RoleStudent:
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE log_id IN (SELECT id FROM logs WHERE student_id = $1)`, user.ID); err != nil {
			return fmt.Errorf("delete log notifications: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE student_id = $1`, user.ID); err != nil {
			return fmt.Errorf("delete student logs: %w", err)
		}
	case models.RoleSupervisor:
		if _, err := tx.ExecContext(ctx, `UPDATE users SET supervisor_id = NULL, updated_at = $2 WHERE supervisor_id = $1`, user.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("unlink students: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("delete user notifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete cascade: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent)
VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
