package stats

import (
	"time"

	"clinic-management/models"
)

// TrendMonths is how many calendar months DoctorSummary.MonthlyTrend covers.
const TrendMonths = 6

type Summary struct {
	TotalVisits             int     `json:"totalVisits"`
	ConfirmedAppointments   int     `json:"confirmedAppointments"`
	UnconfirmedAppointments int     `json:"unconfirmedAppointments"`
	TotalPayments           float64 `json:"totalPayments"`
}

// Summarize counts the appointments dated inside w and sums the payments
// taken inside w. A visit is a confirmed appointment.
func Summarize(appointments []models.Appointment, payments []models.Payment, w Window) Summary {
	var s Summary
	for _, a := range appointments {
		if !w.Contains(a.AppointmentDate) {
			continue
		}
		switch a.Status {
		case models.StatusConfirmed:
			s.ConfirmedAppointments++
		case models.StatusUnconfirmed:
			s.UnconfirmedAppointments++
		}
	}
	s.TotalVisits = s.ConfirmedAppointments

	for _, p := range payments {
		if w.Contains(p.Date) {
			s.TotalPayments += p.Amount
		}
	}
	return s
}

type TypeCounts struct {
	Total     int `json:"total"`
	Pregnancy int `json:"pregnancy"`
	Ovulation int `json:"ovulation"`
	Delivery  int `json:"delivery"`
}

func (c *TypeCounts) add(t models.FollowUpType) {
	c.Total++
	switch t {
	case models.FollowUpPregnancy:
		c.Pregnancy++
	case models.FollowUpOvulation:
		c.Ovulation++
	case models.FollowUpDelivery:
		c.Delivery++
	}
}

type MonthTrend struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
	TypeCounts
}

type DoctorSummary struct {
	Period         Period       `json:"period"`
	TotalCases     int          `json:"totalCases"`
	PregnancyCases int          `json:"pregnancyCases"`
	OvulationCases int          `json:"ovulationCases"`
	DeliveryCases  int          `json:"deliveryCases"`
	MonthlyTrend   []MonthTrend `json:"monthlyTrend"`
}

// CountFollowUps buckets the follow-ups created inside w by type.
func CountFollowUps(followUps []models.FollowUp, w Window) TypeCounts {
	var c TypeCounts
	for _, f := range followUps {
		if w.Contains(f.CreatedAt) {
			c.add(f.Type)
		}
	}
	return c
}

// Trend returns per-month follow-up counts for the TrendMonths calendar
// months ending with now's month, oldest first.
func Trend(followUps []models.FollowUp, now time.Time) []MonthTrend {
	trend := make([]MonthTrend, 0, TrendMonths)
	for i := TrendMonths - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		trend = append(trend, MonthTrend{
			Year:       month.Year(),
			Month:      month.Month(),
			Label:      month.Format("Jan 2006"),
			TypeCounts: CountFollowUps(followUps, MonthWindow(month.Year(), month.Month(), now.Location())),
		})
	}
	return trend
}

func Doctor(followUps []models.FollowUp, period Period, now time.Time) DoctorSummary {
	counts := CountFollowUps(followUps, period.Window(now))
	return DoctorSummary{
		Period:         period,
		TotalCases:     counts.Total,
		PregnancyCases: counts.Pregnancy,
		OvulationCases: counts.Ovulation,
		DeliveryCases:  counts.Delivery,
		MonthlyTrend:   Trend(followUps, now),
	}
}
