package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-management/clinic"
)

type AppointmentHandler struct {
	secretary *clinic.Secretary
	now       func() time.Time
}

func NewAppointmentHandler(secretary *clinic.Secretary, now func() time.Time) *AppointmentHandler {
	return &AppointmentHandler{secretary: secretary, now: now}
}

type ConfirmRequest struct {
	Payment float64 `json:"payment" binding:"gte=0"`
}

type RescheduleRequest struct {
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req clinic.Booking
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.secretary.BookAppointment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListAppointments returns the appointments of ?date=YYYY-MM-DD, today when
// the date is omitted.
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	date, err := dateParam(c, "date", h.secretary.Location(), h.now())
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.secretary.AppointmentsByDate(date))
}

func (h *AppointmentHandler) TodayAppointments(c *gin.Context) {
	c.JSON(http.StatusOK, h.secretary.TodayAppointments(h.now()))
}

func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	var req ConfirmRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ok, err := h.secretary.ConfirmAppointment(c.Request.Context(), c.Param("id"), req.Payment)
	h.respondUpdate(c, ok, err)
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	ok, err := h.secretary.CancelAppointment(c.Request.Context(), c.Param("id"))
	h.respondUpdate(c, ok, err)
}

func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.secretary.RescheduleAppointment(c.Request.Context(), c.Param("id"), req.AppointmentDate)
	h.respondUpdate(c, ok, err)
}

func (h *AppointmentHandler) SendReminders(c *gin.Context) {
	count, err := h.secretary.SendAppointmentReminders(c.Request.Context(), h.now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": count})
}

func (h *AppointmentHandler) respondUpdate(c *gin.Context, ok bool, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		notFound(c, "appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
