package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink-api/internal/models"
	"github.com/vetlink/vetlink-api/internal/service"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/response"
)

// SlotHandler manages slot listing and status endpoints.
type SlotHandler struct {
	service *service.SlotService
}

// NewSlotHandler constructs handler.
func NewSlotHandler(svc *service.SlotService) *SlotHandler {
	return &SlotHandler{service: svc}
}

// List godoc
// @Summary List a provider's slots
// @Tags Slots
// @Produce json
// @Param id path string true "Provider ID"
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Param status query string false "Slot status filter, or ALL"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	filter := models.SlotFilter{ProviderID: c.Param("id")}

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}

	// "ALL" is a query wildcard, never a stored status.
	if raw := strings.ToUpper(c.Query("status")); raw != "" && raw != "ALL" {
		status, err := models.ParseSlotStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, err.Error()))
			return
		}
		filter.Status = status
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	slots, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

type updateSlotStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Manually toggle a slot between available, disabled and blocked
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body updateSlotStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/status [patch]
func (h *SlotHandler) UpdateStatus(c *gin.Context) {
	var req updateSlotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "malformed status payload"))
		return
	}

	status, err := models.ParseSlotStatus(req.Status)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, err.Error()))
		return
	}

	slot, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
