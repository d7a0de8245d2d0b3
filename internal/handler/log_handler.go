package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/internal/service"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/response"
)

type logService interface {
	Create(ctx context.Context, req service.CreateLogRequest) (*models.LogEntry, error)
	Update(ctx context.Context, logID string, req service.UpdateLogRequest) (*models.LogEntry, error)
	Delete(ctx context.Context, logID string) error
	Review(ctx context.Context, logID string, req service.ReviewLogRequest) (*models.LogEntry, error)
	Comment(ctx context.Context, logID, comment string) (*models.LogEntry, error)
	Get(ctx context.Context, logID string) (*models.LogEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LogEntry, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.LogEntry, error)
}

// LogHandler wires HTTP endpoints to the log lifecycle service.
type LogHandler struct {
	service logService
}

// NewLogHandler creates a new handler.
func NewLogHandler(svc logService) *LogHandler {
	return &LogHandler{service: svc}
}

// Create godoc
// @Summary Submit a weekly log
// @Description Create a new log entry in pending state
// @Tags Logs
// @Accept json
// @Produce json
// @Param payload body service.CreateLogRequest true "Log payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs [post]
func (h *LogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log payload"))
		return
	}
	if claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
	}

	log, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, log)
}

// Update godoc
// @Summary Edit a log
// @Description Update a log's content; editing a rejected log resubmits it
// @Tags Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body service.UpdateLogRequest true "Log payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id} [put]
func (h *LogHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logID := c.Param("id")
	if err := h.authorizeStudent(c, claims, logID); err != nil {
		response.Error(c, err)
		return
	}

	var req service.UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log payload"))
		return
	}

	log, err := h.service.Update(c.Request.Context(), logID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a log
// @Description Remove a log and retract every notification referencing it
// @Tags Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id} [delete]
func (h *LogHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logID := c.Param("id")
	if err := h.authorizeStudent(c, claims, logID); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), logID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Get godoc
// @Summary Fetch a log
// @Tags Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id} [get]
func (h *LogHandler) Get(c *gin.Context) {
	log, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// ListMine godoc
// @Summary List own logs
// @Description List the authenticated student's logs
// @Tags Logs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *LogHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logs, err := h.service.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// ListByStudent godoc
// @Summary List a student's logs
// @Tags Logs
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/logs [get]
func (h *LogHandler) ListByStudent(c *gin.Context) {
	logs, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// ListForSupervisor godoc
// @Summary List logs across all linked students
// @Tags Logs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /supervisor/logs [get]
func (h *LogHandler) ListForSupervisor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logs, err := h.service.ListBySupervisor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Review godoc
// @Summary Review a pending log
// @Description Approve or reject a pending log; rejection requires feedback
// @Tags Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body service.ReviewLogRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/review [post]
func (h *LogHandler) Review(c *gin.Context) {
	var req service.ReviewLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	log, err := h.service.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Comment godoc
// @Summary Comment on an approved log
// @Description Set or clear the supervisor comment on an approved log
// @Tags Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body map[string]string true "Comment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/comment [post]
func (h *LogHandler) Comment(c *gin.Context) {
	var payload struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	log, err := h.service.Comment(c.Request.Context(), c.Param("id"), payload.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// authorizeStudent blocks a student from touching another student's log.
// Admins pass through.
func (h *LogHandler) authorizeStudent(c *gin.Context, claims *models.JWTClaims, logID string) error {
	if claims.Role != models.RoleStudent {
		return nil
	}
	log, err := h.service.Get(c.Request.Context(), logID)
	if err != nil {
		return err
	}
	if log.StudentID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "log belongs to another student")
	}
	return nil
}
