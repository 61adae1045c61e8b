package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink-api/internal/service"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/response"
)

// AvailabilityHandler manages provider availability endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Replace godoc
// @Summary Replace a provider's availability for the affected days
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param payload body service.ReplacePeriodsRequest true "New availability window"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	var req service.ReplacePeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "malformed availability payload"))
		return
	}
	req.ProviderID = c.Param("id")

	result, err := h.service.ReplacePeriods(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
