package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink-api/internal/service"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/response"
)

// StatsHandler exposes provider schedule statistics.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Get godoc
// @Summary Provider schedule statistics over a date range
// @Tags Statistics
// @Produce json
// @Param id path string true "Provider ID"
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Param format query string false "Export format: csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/statistics [get]
func (h *StatsHandler) Get(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	providerID := c.Param("id")

	if format := c.Query("format"); format != "" {
		payload, contentType, err := h.service.ExportStatistics(c.Request.Context(), providerID, start, end, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		filename := fmt.Sprintf("statistics-%s-%s.%s", start.Format("2006-01-02"), end.Format("2006-01-02"), format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, contentType, payload)
		return
	}

	stats, err := h.service.ProviderStatistics(c.Request.Context(), providerID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRequest, "start must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRequest, "end must be YYYY-MM-DD")
	}
	return start, end, nil
}
