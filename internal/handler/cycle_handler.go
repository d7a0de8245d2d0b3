package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/it-logbook-api/internal/service"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/response"
)

// CycleHandler wires HTTP endpoints to program cycle management.
type CycleHandler struct {
	service *service.CycleService
}

// NewCycleHandler creates a new handler.
func NewCycleHandler(svc *service.CycleService) *CycleHandler {
	return &CycleHandler{service: svc}
}

// List godoc
// @Summary List program cycles
// @Tags Cycles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cycles [get]
func (h *CycleHandler) List(c *gin.Context) {
	cycles, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, nil)
}

// Create godoc
// @Summary Create a program cycle
// @Tags Cycles
// @Accept json
// @Produce json
// @Param payload body service.CreateCycleRequest true "Cycle"
// @Success 201 {object} response.Envelope
// @Router /cycles [post]
func (h *CycleHandler) Create(c *gin.Context) {
	var req service.CreateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cycle payload"))
		return
	}

	cycle, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cycle)
}

// Delete godoc
// @Summary Delete a program cycle
// @Tags Cycles
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 204 {object} response.Envelope
// @Router /cycles/{id} [delete]
func (h *CycleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
