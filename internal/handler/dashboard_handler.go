package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/it-logbook-api/internal/service"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
	metrics *service.MetricsService
	skills  *service.SkillService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService, metrics *service.MetricsService, skills *service.SkillService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics, skills: skills}
}

// Supervisor godoc
// @Summary Supervisor overview
// @Description Linked students, the full log feed and review backlog counters
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/supervisor [get]
func (h *DashboardHandler) Supervisor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, cached, err := h.service.Supervisor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, map[string]interface{}{"cached": cached})
}

// Admin godoc
// @Summary Admin overview
// @Description Organisation-wide counters plus recent activity
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, cached, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, map[string]interface{}{"cached": cached})
}

// Events godoc
// @Summary Recent system events
// @Tags Dashboards
// @Produce json
// @Param limit query int false "Maximum events"
// @Success 200 {object} response.Envelope
// @Router /dashboard/events [get]
func (h *DashboardHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.service.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// SystemMetrics godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// StudentSkills godoc
// @Summary List a student's derived skills
// @Tags Skills
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/skills [get]
func (h *DashboardHandler) StudentSkills(c *gin.Context) {
	skills, err := h.skills.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, skills, nil)
}
