package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

// SkillChangeSet is the prepared outcome of one derivation pass: brand new
// skills plus evidence appended to existing ones. The service computes it;
// the repository applies it atomically.
type SkillChangeSet struct {
	Creates []models.Skill
	Appends map[string]string // skill id -> contributing log id
}

// Empty reports whether the change set would write nothing.
func (c SkillChangeSet) Empty() bool {
	return len(c.Creates) == 0 && len(c.Appends) == 0
}

// SkillRepository provides persistence for derived skills.
type SkillRepository struct {
	db *sqlx.DB
}

// NewSkillRepository creates the repository.
func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// ListByStudent returns all skills derived for a student.
func (r *SkillRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Skill, error) {
	const query = `SELECT id, student_id, name, category, log_ids FROM skills WHERE student_id = $1 ORDER BY category, name`
	var skills []models.Skill
	if err := r.db.SelectContext(ctx, &skills, query, studentID); err != nil {
		return nil, fmt.Errorf("list skills by student: %w", err)
	}
	return skills, nil
}

// Apply writes a full change set in a single transaction. Evidence appends
// guard against duplicates in SQL so a replayed derivation stays idempotent.
func (r *SkillRepository) Apply(ctx context.Context, change SkillChangeSet) error {
	if change.Empty() {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin skill changes: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range change.Creates {
		skill := change.Creates[i]
		if skill.ID == "" {
			skill.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skills (id, student_id, name, category, log_ids) VALUES ($1, $2, $3, $4, $5)`,
			skill.ID, skill.StudentID, skill.Name, skill.Category, pq.Array(skill.LogIDs)); err != nil {
			return fmt.Errorf("insert skill %s: %w", skill.Name, err)
		}
	}

	for skillID, logID := range change.Appends {
		if _, err := tx.ExecContext(ctx,
			`UPDATE skills SET log_ids = array_append(log_ids, $2) WHERE id = $1 AND NOT ($2 = ANY(log_ids))`,
			skillID, logID); err != nil {
			return fmt.Errorf("append skill evidence %s: %w", skillID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit skill changes: %w", err)
	}
	return nil
}
