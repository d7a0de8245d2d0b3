package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type cycleRepository interface {
	List(ctx context.Context) ([]models.ProgramCycle, error)
	Create(ctx context.Context, cycle *models.ProgramCycle) error
	Delete(ctx context.Context, id string) error
}

// CreateCycleRequest defines a new internship intake window.
type CreateCycleRequest struct {
	Name      string    `json:"name" validate:"required,min=3,max=100"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// CycleService manages internship program cycles.
type CycleService struct {
	repo     cycleRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCycleService constructs the service.
func NewCycleService(repo cycleRepository, logger *zap.Logger) *CycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleService{repo: repo, validate: validator.New(), logger: logger}
}

// List returns cycles, most recent start date first.
func (s *CycleService) List(ctx context.Context) ([]models.ProgramCycle, error) {
	cycles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cycles")
	}
	return cycles, nil
}

// Create registers a new cycle.
func (s *CycleService) Create(ctx context.Context, req CreateCycleRequest) (*models.ProgramCycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	cycle := &models.ProgramCycle{
		Name:      req.Name,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
	}
	if err := s.repo.Create(ctx, cycle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cycle")
	}
	return cycle, nil
}

// Delete removes a cycle.
func (s *CycleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete cycle")
	}
	return nil
}
