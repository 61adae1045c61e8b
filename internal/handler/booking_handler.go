package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink-api/internal/service"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/response"
)

// BookingHandler manages appointment booking endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

type rescheduleRequest struct {
	TargetSlotID string `json:"target_slot_id" binding:"required"`
}

// Book godoc
// @Summary Book an available slot
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.BookAppointmentRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Router /appointments [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req service.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "malformed booking payload"))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Reschedule godoc
// @Summary Move an appointment to another available slot
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body rescheduleRequest true "Target slot"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/reschedule [post]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "malformed reschedule payload"))
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req.TargetSlotID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Cancel an appointment and release its slot
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 204
// @Router /appointments/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
