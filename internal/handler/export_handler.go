package handler

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/it-logbook-api/internal/service"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/response"
)

// ExportHandler wires HTTP endpoints to logbook report generation.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Generate godoc
// @Summary Generate a logbook report
// @Description Render a student's logbook to CSV or PDF and return a signed download token
// @Tags Exports
// @Produce json
// @Param id path string true "Student ID"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/export [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "pdf"))
	report, err := h.service.Generate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Download godoc
// @Summary Download a generated report
// @Description Stream a report using its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter required"))
		return
	}

	file, contentType, err := h.service.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(file.Name())+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
