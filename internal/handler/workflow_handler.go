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

type workflowService interface {
	RequestFinalReview(ctx context.Context, studentID string, req service.RequestFinalReviewRequest) (*models.User, error)
	CancelFinalReview(ctx context.Context, studentID string) (*models.User, error)
	FinalSignOff(ctx context.Context, studentID string, req service.FinalSignOffRequest) (*models.User, error)
}

// WorkflowHandler wires HTTP endpoints to the completion workflow service.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler creates a new handler.
func NewWorkflowHandler(svc workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

// RequestFinalReview godoc
// @Summary Submit logbook for final review
// @Description Move the student to awaiting approval and freeze the logbook
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body service.RequestFinalReviewRequest true "Final summary"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflow/final-review [post]
func (h *WorkflowHandler) RequestFinalReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RequestFinalReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid final review payload"))
		return
	}

	student, err := h.service.RequestFinalReview(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// CancelFinalReview godoc
// @Summary Cancel a pending final review
// @Description Return the student to ongoing and unlock the logbook
// @Tags Workflow
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflow/final-review [delete]
func (h *WorkflowHandler) CancelFinalReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	student, err := h.service.CancelFinalReview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// FinalSignOff godoc
// @Summary Record the supervisor's final sign-off
// @Description Approve completes the internship, request_changes reopens the logbook
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.FinalSignOffRequest true "Evaluation and verdict"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/sign-off [post]
func (h *WorkflowHandler) FinalSignOff(c *gin.Context) {
	var req service.FinalSignOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-off payload"))
		return
	}

	student, err := h.service.FinalSignOff(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
