package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/internal/repository"
	"github.com/noah-isme/it-logbook-api/pkg/config"
)

type mockSkillRepo struct {
	skills    []models.Skill
	applied   []repository.SkillChangeSet
	listErr   error
	applyErr  error
	listCalls int
}

func (m *mockSkillRepo) ListByStudent(_ context.Context, _ string) ([]models.Skill, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.skills, nil
}

func (m *mockSkillRepo) Apply(_ context.Context, change repository.SkillChangeSet) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, change)
	return nil
}

type stubClassifier struct {
	extraction *models.SkillExtraction
	err        error
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (*models.SkillExtraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

func newSkillFixture(repo *mockSkillRepo, cls *stubClassifier) *SkillService {
	var classifier skillClassifier
	if cls != nil {
		classifier = cls
	}
	return NewSkillService(repo, classifier, config.SkillsConfig{WorkerConcurrency: 1}, zap.NewNop())
}

func approvedLog(id string) *models.LogEntry {
	return &models.LogEntry{
		ID:        id,
		StudentID: "student-1",
		Content:   "Set up the office network and presented the results to the team.",
		Status:    models.LogStatusApproved,
	}
}

func TestSkillServiceDeriveCreatesNewSkills(t *testing.T) {
	repo := &mockSkillRepo{}
	cls := &stubClassifier{extraction: &models.SkillExtraction{
		Technical: []string{"Networking"},
		Soft:      []string{"Presentation"},
	}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))

	require.Len(t, repo.applied, 1)
	change := repo.applied[0]
	require.Len(t, change.Creates, 2)
	assert.Empty(t, change.Appends)

	assert.Equal(t, "Networking", change.Creates[0].Name)
	assert.Equal(t, models.SkillCategoryTechnical, change.Creates[0].Category)
	assert.Equal(t, []string{"log-1"}, []string(change.Creates[0].LogIDs))

	assert.Equal(t, "Presentation", change.Creates[1].Name)
	assert.Equal(t, models.SkillCategorySoft, change.Creates[1].Category)
}

func TestSkillServiceDeriveAppendsEvidenceCaseInsensitively(t *testing.T) {
	repo := &mockSkillRepo{skills: []models.Skill{
		{ID: "skill-1", StudentID: "student-1", Name: "networking", Category: models.SkillCategoryTechnical, LogIDs: []string{"log-0"}},
	}}
	cls := &stubClassifier{extraction: &models.SkillExtraction{Technical: []string{"Networking"}}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))

	require.Len(t, repo.applied, 1)
	change := repo.applied[0]
	assert.Empty(t, change.Creates)
	assert.Equal(t, map[string]string{"skill-1": "log-1"}, change.Appends)
}

func TestSkillServiceDeriveReplayIsNoOp(t *testing.T) {
	repo := &mockSkillRepo{skills: []models.Skill{
		{ID: "skill-1", StudentID: "student-1", Name: "Networking", Category: models.SkillCategoryTechnical, LogIDs: []string{"log-1"}},
	}}
	cls := &stubClassifier{extraction: &models.SkillExtraction{Technical: []string{"networking"}}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))
	assert.Empty(t, repo.applied)
}

func TestSkillServiceDeriveCollapsesDuplicatesInOneExtraction(t *testing.T) {
	repo := &mockSkillRepo{}
	cls := &stubClassifier{extraction: &models.SkillExtraction{
		Technical: []string{"Docker", "docker", "  Docker  "},
	}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))

	require.Len(t, repo.applied, 1)
	assert.Len(t, repo.applied[0].Creates, 1)
}

func TestSkillServiceDeriveSameNameInBothCategories(t *testing.T) {
	repo := &mockSkillRepo{}
	cls := &stubClassifier{extraction: &models.SkillExtraction{
		Technical: []string{"Communication"},
		Soft:      []string{"Communication"},
	}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))

	// Categories are independent namespaces.
	require.Len(t, repo.applied, 1)
	assert.Len(t, repo.applied[0].Creates, 2)
}

func TestSkillServiceDeriveSkipsBlankNames(t *testing.T) {
	repo := &mockSkillRepo{}
	cls := &stubClassifier{extraction: &models.SkillExtraction{Technical: []string{"  ", ""}}}
	svc := newSkillFixture(repo, cls)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))
	assert.Empty(t, repo.applied)
}

func TestSkillServiceDeriveClassifierErrorSurfaces(t *testing.T) {
	repo := &mockSkillRepo{}
	cls := &stubClassifier{err: assert.AnError}
	svc := newSkillFixture(repo, cls)

	err := svc.DeriveForLog(context.Background(), approvedLog("log-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, repo.listCalls)
}

func TestSkillServiceDeriveDisabledWithoutClassifier(t *testing.T) {
	repo := &mockSkillRepo{}
	svc := newSkillFixture(repo, nil)

	require.NoError(t, svc.DeriveForLog(context.Background(), approvedLog("log-1")))
	assert.Zero(t, repo.listCalls)
}

func TestSkillServiceEnqueueWithoutClassifierIsNoOp(t *testing.T) {
	svc := newSkillFixture(&mockSkillRepo{}, nil)
	svc.EnqueueDerivation(approvedLog("log-1"))
}
