package models

import "github.com/lib/pq"

// SkillCategory splits derived skills into technical and soft skills.
type SkillCategory string

const (
	SkillCategoryTechnical SkillCategory = "technical"
	SkillCategorySoft      SkillCategory = "soft"
)

// Skill is a derived aggregate: evidence that a student demonstrated a named
// skill, backed by the approved logs it was extracted from. LogIDs has set
// semantics; a log contributes to a skill at most once.
type Skill struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Name      string         `db:"name" json:"name"`
	Category  SkillCategory  `db:"category" json:"category"`
	LogIDs    pq.StringArray `db:"log_ids" json:"log_ids"`
}

// HasEvidence reports whether the log already contributes to this skill.
func (s *Skill) HasEvidence(logID string) bool {
	for _, id := range s.LogIDs {
		if id == logID {
			return true
		}
	}
	return false
}

// SkillExtraction is the classifier output for one log's content.
type SkillExtraction struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}
