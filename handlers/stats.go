package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-management/clinic"
)

type StatsHandler struct {
	secretary *clinic.Secretary
	now       func() time.Time
}

func NewStatsHandler(secretary *clinic.Secretary, now func() time.Time) *StatsHandler {
	return &StatsHandler{secretary: secretary, now: now}
}

func (h *StatsHandler) Daily(c *gin.Context) {
	date, err := dateParam(c, "date", h.secretary.Location(), h.now())
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.secretary.DailyStats(date))
}

// Monthly takes ?year= and ?month=1..12, both defaulting to the current month.
func (h *StatsHandler) Monthly(c *gin.Context) {
	now := h.now().In(h.secretary.Location())

	year, err := intParam(c, "year", now.Year())
	if err != nil {
		badRequest(c, err)
		return
	}
	month, err := intParam(c, "month", int(now.Month()))
	if err != nil {
		badRequest(c, err)
		return
	}
	if month < 1 || month > 12 {
		badRequest(c, fmt.Errorf("month must be between 1 and 12, got %d", month))
		return
	}

	c.JSON(http.StatusOK, h.secretary.MonthlyStats(year, time.Month(month)))
}

func (h *StatsHandler) Yearly(c *gin.Context) {
	year, err := intParam(c, "year", h.now().In(h.secretary.Location()).Year())
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.secretary.YearlyStats(year))
}
