package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/pkg/config"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type workflowUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetFinalReview(ctx context.Context, studentID string, status models.ItStatus, finalSummary string) error
	SetItStatus(ctx context.Context, studentID string, status models.ItStatus) error
	SetSignOff(ctx context.Context, studentID string, status models.ItStatus, evaluation string) error
}

type logCounter interface {
	CountByStudent(ctx context.Context, studentID string) (int, error)
	CountByStudentAndStatus(ctx context.Context, studentID string, status models.LogStatus) (int, error)
}

// SignOffAction is the supervisor's verdict on a finalized logbook.
type SignOffAction string

const (
	SignOffApprove        SignOffAction = "approve"
	SignOffRequestChanges SignOffAction = "request_changes"
)

// RequestFinalReviewRequest is the student's submission for final review.
type RequestFinalReviewRequest struct {
	FinalSummary string `json:"final_summary" validate:"required"`
}

// FinalSignOffRequest is the supervisor's closing evaluation.
type FinalSignOffRequest struct {
	Evaluation string        `json:"evaluation" validate:"required"`
	Action     SignOffAction `json:"action" validate:"required,oneof=approve request_changes"`
}

// WorkflowService drives the internship completion state machine:
// ongoing -> awaiting_approval -> completed, with awaiting_approval able to
// fall back to ongoing.
type WorkflowService struct {
	users    workflowUserRepository
	logs     logCounter
	notifier notificationDispatcher
	events   eventRecorder
	cfg      config.WorkflowConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewWorkflowService constructs the service.
func NewWorkflowService(users workflowUserRepository, logs logCounter, notifier notificationDispatcher, events eventRecorder, cfg config.WorkflowConfig, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		users:    users,
		logs:     logs,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

// RequestFinalReview moves a student to awaiting approval, freezing the
// logbook. Every log the student has must already be approved; a student
// with no logs satisfies that vacuously.
func (s *WorkflowService) RequestFinalReview(ctx context.Context, studentID string, req RequestFinalReviewRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid final review payload")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	current := student.CurrentItStatus()
	if !current.CanTransition(models.ItStatusAwaitingApproval) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot request final review while %s", current))
	}

	total, err := s.logs.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count logs")
	}
	approved, err := s.logs.CountByStudentAndStatus(ctx, studentID, models.LogStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved logs")
	}
	if approved < total {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all logs must be approved before requesting final review")
	}

	if err := s.users.SetFinalReview(ctx, studentID, models.ItStatusAwaitingApproval, req.FinalSummary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to request final review")
	}

	s.recordEvent(ctx, models.EventLogbookFinalized,
		fmt.Sprintf("%s submitted their logbook for final review.", student.FullName()))
	if student.SupervisorID != nil {
		s.notify(ctx, *student.SupervisorID,
			fmt.Sprintf("%s has submitted their logbook for final approval.", student.FullName()),
			NotificationRefs{StudentID: student.ID, Type: models.NotificationTypeFinalReviewRequest})
	}

	return s.reload(ctx, studentID)
}

// CancelFinalReview returns the student to ongoing and unfreezes the logbook.
// The stored final summary stays so the student can refine it and resubmit.
func (s *WorkflowService) CancelFinalReview(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.CurrentItStatus() == models.ItStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "a completed internship cannot be reopened by the student")
	}

	if err := s.users.SetItStatus(ctx, studentID, models.ItStatusOngoing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel final review")
	}
	return s.reload(ctx, studentID)
}

// FinalSignOff records the supervisor's closing evaluation. Approve completes
// the internship; request_changes reopens the logbook. With strict sign-off
// enabled the student must currently be awaiting approval.
func (s *WorkflowService) FinalSignOff(ctx context.Context, studentID string, req FinalSignOffRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-off payload")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if s.cfg.StrictSignOff && student.CurrentItStatus() != models.ItStatusAwaitingApproval {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "student has not requested final review")
	}

	next := models.ItStatusCompleted
	if req.Action == SignOffRequestChanges {
		next = models.ItStatusOngoing
	}

	if err := s.users.SetSignOff(ctx, studentID, next, req.Evaluation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record sign-off")
	}

	switch next {
	case models.ItStatusCompleted:
		s.notify(ctx, student.ID,
			"Congratulations! Your supervisor has approved your logbook and your internship is complete.",
			NotificationRefs{})
	case models.ItStatusOngoing:
		s.notify(ctx, student.ID,
			"Your supervisor has requested changes to your logbook. It is now unlocked for editing.",
			NotificationRefs{})
	}

	return s.reload(ctx, studentID)
}

func (s *WorkflowService) loadStudent(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "completion workflow applies to students")
	}
	return student, nil
}

func (s *WorkflowService) reload(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	return student, nil
}

func (s *WorkflowService) notify(ctx context.Context, userID, message string, refs NotificationRefs) {
	if _, err := s.notifier.Notify(ctx, userID, message, refs); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *WorkflowService) recordEvent(ctx context.Context, eventType models.SystemEventType, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Create(ctx, &models.SystemEvent{Type: eventType, Message: message}); err != nil {
		s.logger.Warn("system event not recorded",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
