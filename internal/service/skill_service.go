package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/internal/repository"
	"github.com/noah-isme/it-logbook-api/pkg/config"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/jobs"
)

type skillRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Skill, error)
	Apply(ctx context.Context, change repository.SkillChangeSet) error
}

type skillClassifier interface {
	Classify(ctx context.Context, logContent string) (*models.SkillExtraction, error)
}

// SkillService derives a student's skill profile from approved logs. The
// classifier call and the merge run on a background queue so a slow or failing
// extraction never blocks an approval.
type SkillService struct {
	repo       skillRepository
	classifier skillClassifier
	queue      *jobs.Queue
	logger     *zap.Logger
}

// NewSkillService constructs the service and its derivation queue. A nil
// classifier disables derivation entirely.
func NewSkillService(repo skillRepository, classifier skillClassifier, cfg config.SkillsConfig, logger *zap.Logger) *SkillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SkillService{
		repo:       repo,
		classifier: classifier,
		logger:     logger,
	}
	s.queue = jobs.NewQueue("skill-derivation", s.handleDerivation, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the derivation workers.
func (s *SkillService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the derivation workers.
func (s *SkillService) Stop() {
	s.queue.Stop()
}

// ListByStudent returns the student's derived skill profile.
func (s *SkillService) ListByStudent(ctx context.Context, studentID string) ([]models.Skill, error) {
	skills, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list skills")
	}
	return skills, nil
}

// EnqueueDerivation schedules skill extraction for an approved log. Failures
// are logged, never surfaced: the approval already happened.
func (s *SkillService) EnqueueDerivation(log *models.LogEntry) {
	if s.classifier == nil || log == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      log.ID,
		Type:    "derive_skills",
		Payload: log,
	})
	if err != nil {
		s.logger.Warn("skill derivation not enqueued",
			zap.String("log_id", log.ID),
			zap.Error(err))
	}
}

func (s *SkillService) handleDerivation(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.LogEntry)
	if !ok || log == nil {
		s.logger.Error("skill derivation job carried an unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.DeriveForLog(ctx, log)
}

// DeriveForLog runs one extraction pass for a log and merges the result into
// the student's profile. Matching is case-insensitive per category and a log
// contributes to a given skill at most once, so replaying a derivation is a
// no-op.
func (s *SkillService) DeriveForLog(ctx context.Context, log *models.LogEntry) error {
	if s.classifier == nil {
		return nil
	}

	extraction, err := s.classifier.Classify(ctx, log.Content)
	if err != nil {
		return fmt.Errorf("classify log %s: %w", log.ID, err)
	}
	if extraction == nil {
		return nil
	}

	existing, err := s.repo.ListByStudent(ctx, log.StudentID)
	if err != nil {
		return fmt.Errorf("load skills for student %s: %w", log.StudentID, err)
	}

	change := s.computeChangeSet(log, existing, extraction)
	if change.Empty() {
		return nil
	}
	if err := s.repo.Apply(ctx, change); err != nil {
		return fmt.Errorf("apply skill changes for log %s: %w", log.ID, err)
	}

	s.logger.Info("skill profile updated",
		zap.String("student_id", log.StudentID),
		zap.String("log_id", log.ID),
		zap.Int("created", len(change.Creates)),
		zap.Int("appended", len(change.Appends)))
	return nil
}

func (s *SkillService) computeChangeSet(log *models.LogEntry, existing []models.Skill, extraction *models.SkillExtraction) repository.SkillChangeSet {
	change := repository.SkillChangeSet{Appends: make(map[string]string)}

	// Index existing skills and in-flight creations by category + lowercased
	// name so duplicates within a single extraction collapse too.
	index := make(map[string]*models.Skill, len(existing))
	for i := range existing {
		index[skillKey(existing[i].Category, existing[i].Name)] = &existing[i]
	}
	created := make(map[string]bool)

	merge := func(category models.SkillCategory, names []string) {
		for _, raw := range names {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			key := skillKey(category, name)
			if skill, ok := index[key]; ok {
				if !skill.HasEvidence(log.ID) {
					change.Appends[skill.ID] = log.ID
				}
				continue
			}
			if created[key] {
				continue
			}
			created[key] = true
			change.Creates = append(change.Creates, models.Skill{
				StudentID: log.StudentID,
				Name:      name,
				Category:  category,
				LogIDs:    []string{log.ID},
			})
		}
	}

	merge(models.SkillCategoryTechnical, extraction.Technical)
	merge(models.SkillCategorySoft, extraction.Soft)

	return change
}

func skillKey(category models.SkillCategory, name string) string {
	return string(category) + "|" + strings.ToLower(strings.TrimSpace(name))
}
