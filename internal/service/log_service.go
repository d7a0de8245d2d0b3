package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
)

type logRepository interface {
	FindByID(ctx context.Context, id string) (*models.LogEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LogEntry, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.LogEntry, error)
	Create(ctx context.Context, log *models.LogEntry) error
	Update(ctx context.Context, log *models.LogEntry) error
	UpdateStatus(ctx context.Context, id string, status models.LogStatus, feedback *string) error
	UpdateFeedback(ctx context.Context, id string, feedback *string) error
	Delete(ctx context.Context, id string) error
}

type userGetter interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationDispatcher interface {
	Notify(ctx context.Context, userID, message string, refs NotificationRefs) (*models.Notification, error)
	RetractByLogRef(ctx context.Context, logID, userID string) error
}

type eventRecorder interface {
	Create(ctx context.Context, event *models.SystemEvent) error
}

type skillDeriver interface {
	EnqueueDerivation(log *models.LogEntry)
}

type lifecycleMetrics interface {
	RecordLogDecision(status models.LogStatus)
	RecordLogSubmission()
}

// CreateLogRequest is the payload for submitting a weekly log.
type CreateLogRequest struct {
	StudentID   string                `json:"student_id" validate:"required"`
	Date        time.Time             `json:"date" validate:"required"`
	Week        int                   `json:"week" validate:"required,gt=0"`
	Title       string                `json:"title" validate:"required"`
	Content     string                `json:"content" validate:"required"`
	Attachments models.AttachmentList `json:"attachments"`
}

// UpdateLogRequest is the payload for editing an existing log.
type UpdateLogRequest struct {
	Date        *time.Time            `json:"date"`
	Week        *int                  `json:"week" validate:"omitempty,gt=0"`
	Title       *string               `json:"title" validate:"omitnil,required"`
	Content     *string               `json:"content" validate:"omitnil,required"`
	Attachments models.AttachmentList `json:"attachments"`
}

// ReviewLogRequest is a supervisor's decision on a pending log.
type ReviewLogRequest struct {
	Status   models.LogStatus `json:"status" validate:"required,oneof=approved rejected"`
	Feedback string           `json:"feedback"`
}

// LogService implements the weekly log lifecycle: submission, edits,
// review decisions and the side effects each of them fans out.
type LogService struct {
	logs     logRepository
	users    userGetter
	notifier notificationDispatcher
	events   eventRecorder
	skills   skillDeriver
	metrics  lifecycleMetrics
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLogService constructs the service. The skill deriver and metrics hooks
// are optional.
func NewLogService(logs logRepository, users userGetter, notifier notificationDispatcher, events eventRecorder, logger *zap.Logger) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogService{
		logs:     logs,
		users:    users,
		notifier: notifier,
		events:   events,
		validate: validator.New(),
		logger:   logger,
	}
}

// WithSkillDeriver wires the asynchronous skill derivation hook.
func (s *LogService) WithSkillDeriver(deriver skillDeriver) *LogService {
	s.skills = deriver
	return s
}

// WithMetrics wires the domain metrics hook.
func (s *LogService) WithMetrics(metrics lifecycleMetrics) *LogService {
	s.metrics = metrics
	return s
}

// Create submits a new log in pending state, records the submission event and
// notifies the student's supervisor if one is linked.
func (s *LogService) Create(ctx context.Context, req CreateLogRequest) (*models.LogEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log payload")
	}

	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.CurrentItStatus().Locked() {
		return nil, appErrors.Clone(appErrors.ErrLogbookLocked, "logbook is locked while the internship is under final review")
	}

	log := &models.LogEntry{
		StudentID:   req.StudentID,
		Date:        req.Date.UTC(),
		Week:        req.Week,
		Title:       req.Title,
		Content:     req.Content,
		Attachments: req.Attachments,
		Status:      models.LogStatusPending,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create log")
	}

	if s.metrics != nil {
		s.metrics.RecordLogSubmission()
	}
	s.recordEvent(ctx, models.EventLogSubmitted, fmt.Sprintf("%s submitted a log for week %d.", student.FullName(), log.Week))
	if student.SupervisorID != nil {
		s.notify(ctx, *student.SupervisorID,
			fmt.Sprintf("%s submitted a new log for week %d.", student.FullName(), log.Week),
			NotificationRefs{LogID: log.ID})
	}

	return log, nil
}

// Update edits a log's content. Approved logs are immutable; editing a
// rejected log resubmits it as pending, clears the old feedback and replaces
// the supervisor's stale review notification.
func (s *LogService) Update(ctx context.Context, logID string, req UpdateLogRequest) (*models.LogEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log payload")
	}

	log, err := s.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, log.StudentID)
	if err != nil {
		return nil, err
	}
	if student.CurrentItStatus().Locked() {
		return nil, appErrors.Clone(appErrors.ErrLogbookLocked, "logbook is locked while the internship is under final review")
	}
	if log.Status == models.LogStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "approved logs cannot be edited")
	}

	resubmitted := log.Status == models.LogStatusRejected
	if resubmitted {
		log.Status = models.LogStatusPending
		log.Feedback = nil
	}

	if req.Date != nil {
		log.Date = req.Date.UTC()
	}
	if req.Week != nil {
		log.Week = *req.Week
	}
	if req.Title != nil {
		log.Title = *req.Title
	}
	if req.Content != nil {
		log.Content = *req.Content
	}
	if req.Attachments != nil {
		log.Attachments = req.Attachments
	}

	if err := s.logs.Update(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log")
	}

	if resubmitted && student.SupervisorID != nil {
		s.retract(ctx, log.ID, *student.SupervisorID)
		s.notify(ctx, *student.SupervisorID,
			fmt.Sprintf("%s updated their rejected log for week %d.", student.FullName(), log.Week),
			NotificationRefs{LogID: log.ID})
	}

	return log, nil
}

// Delete removes a log together with every notification that references it,
// so no reviewer is left pointing at a log that no longer exists.
func (s *LogService) Delete(ctx context.Context, logID string) error {
	log, err := s.loadLog(ctx, logID)
	if err != nil {
		return err
	}
	student, err := s.loadStudent(ctx, log.StudentID)
	if err != nil {
		return err
	}
	if student.CurrentItStatus().Locked() {
		return appErrors.Clone(appErrors.ErrLogbookLocked, "logbook is locked while the internship is under final review")
	}

	if err := s.logs.Delete(ctx, logID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete log")
	}
	if err := s.notifier.RetractByLogRef(ctx, logID, ""); err != nil {
		return err
	}
	return nil
}

// Review applies a supervisor decision to a pending log. Approval fans out a
// student notification, the approval event and an asynchronous skill
// derivation; rejection requires feedback. No decision is accepted while the
// student's logbook is locked.
func (s *LogService) Review(ctx context.Context, logID string, req ReviewLogRequest) (*models.LogEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	log, err := s.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, log.StudentID)
	if err != nil {
		return nil, err
	}
	if student.CurrentItStatus().Locked() {
		return nil, appErrors.Clone(appErrors.ErrLogbookLocked, "logbook is locked while the internship is under final review")
	}
	if !log.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move log from %s to %s", log.Status, req.Status))
	}

	var feedback *string
	switch req.Status {
	case models.LogStatusRejected:
		if req.Feedback == "" {
			return nil, appErrors.ErrFeedbackRequired
		}
		feedback = &req.Feedback
	case models.LogStatusApproved:
		if req.Feedback != "" {
			feedback = &req.Feedback
		}
	}

	if err := s.logs.UpdateStatus(ctx, log.ID, req.Status, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log status")
	}
	log.Status = req.Status
	log.Feedback = feedback
	log.UpdatedAt = time.Now().UTC()

	if s.metrics != nil {
		s.metrics.RecordLogDecision(req.Status)
	}

	if student.SupervisorID != nil {
		s.retract(ctx, log.ID, *student.SupervisorID)
	}

	switch req.Status {
	case models.LogStatusApproved:
		s.notify(ctx, student.ID,
			fmt.Sprintf("Your log for week %d has been approved.", log.Week),
			NotificationRefs{LogID: log.ID})
		s.recordEvent(ctx, models.EventLogApproved,
			fmt.Sprintf("A log by %s for week %d was approved.", student.FullName(), log.Week))
		if s.skills != nil {
			s.skills.EnqueueDerivation(log)
		}
	case models.LogStatusRejected:
		s.notify(ctx, student.ID,
			fmt.Sprintf("Your log for week %d was rejected. Check the feedback and resubmit.", log.Week),
			NotificationRefs{LogID: log.ID})
	}

	return log, nil
}

// Comment sets or replaces the supervisor's comment on an approved log. An
// empty comment clears it without notifying the student.
func (s *LogService) Comment(ctx context.Context, logID, comment string) (*models.LogEntry, error) {
	log, err := s.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.Status != models.LogStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "comments can only be left on approved logs")
	}

	var feedback *string
	if comment != "" {
		feedback = &comment
	}
	if err := s.logs.UpdateFeedback(ctx, log.ID, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log comment")
	}
	log.Feedback = feedback
	log.UpdatedAt = time.Now().UTC()

	if comment != "" {
		s.notify(ctx, log.StudentID,
			fmt.Sprintf("Your supervisor left a comment on your week %d log.", log.Week),
			NotificationRefs{LogID: log.ID})
	}

	return log, nil
}

// Get returns one log by ID.
func (s *LogService) Get(ctx context.Context, logID string) (*models.LogEntry, error) {
	return s.loadLog(ctx, logID)
}

// ListByStudent returns a student's logs, newest date first.
func (s *LogService) ListByStudent(ctx context.Context, studentID string) ([]models.LogEntry, error) {
	logs, err := s.logs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}
	return logs, nil
}

// ListBySupervisor returns every log submitted by the supervisor's students.
func (s *LogService) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.LogEntry, error) {
	logs, err := s.logs.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}
	return logs, nil
}

func (s *LogService) loadLog(ctx context.Context, logID string) (*models.LogEntry, error) {
	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	return log, nil
}

func (s *LogService) loadStudent(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "logs belong to students")
	}
	return student, nil
}

// notify delivers a notification without letting a delivery failure roll back
// the primary mutation.
func (s *LogService) notify(ctx context.Context, userID, message string, refs NotificationRefs) {
	if _, err := s.notifier.Notify(ctx, userID, message, refs); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *LogService) retract(ctx context.Context, logID, userID string) {
	if err := s.notifier.RetractByLogRef(ctx, logID, userID); err != nil {
		s.logger.Warn("notification retraction failed",
			zap.String("log_id", logID),
			zap.Error(err))
	}
}

func (s *LogService) recordEvent(ctx context.Context, eventType models.SystemEventType, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Create(ctx, &models.SystemEvent{Type: eventType, Message: message}); err != nil {
		s.logger.Warn("system event not recorded",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
