package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-management/clinic"
	"clinic-management/models"
	"clinic-management/stats"
)

type DoctorHandler struct {
	doctor *clinic.Doctor
	search *PatientSearch
	now    func() time.Time
}

func NewDoctorHandler(doctor *clinic.Doctor, search *PatientSearch, now func() time.Time) *DoctorHandler {
	return &DoctorHandler{doctor: doctor, search: search, now: now}
}

type FollowUpRequest struct {
	PatientID         string              `json:"patientId" binding:"required"`
	Type              models.FollowUpType `json:"type" binding:"required,oneof=pregnancy ovulation delivery"`
	PregnancyWeek     string              `json:"pregnancyWeek"`
	FetusMeasurements string              `json:"fetusMeasurements"`
	CycleDay          string              `json:"cycleDay"`
	FollicleSize      string              `json:"follicleSize"`
	DoctorNotes       string              `json:"doctorNotes"`
	Prescription      string              `json:"prescription"`
	NextVisit         string              `json:"nextVisit"`
}

func (h *DoctorHandler) PatientFile(c *gin.Context) {
	file := h.doctor.PatientFile(c.Param("id"))
	if file == nil {
		notFound(c, "patient")
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *DoctorHandler) SearchPatients(c *gin.Context) {
	c.JSON(http.StatusOK, h.search.Search(c.Request.Context(), c.Query("q")))
}

func (h *DoctorHandler) AddFollowUp(c *gin.Context) {
	var req FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.doctor.AddFollowUp(c.Request.Context(), models.FollowUp{
		PatientID:         req.PatientID,
		Type:              req.Type,
		PregnancyWeek:     req.PregnancyWeek,
		FetusMeasurements: req.FetusMeasurements,
		CycleDay:          req.CycleDay,
		FollicleSize:      req.FollicleSize,
		DoctorNotes:       req.DoctorNotes,
		Prescription:      req.Prescription,
		NextVisit:         req.NextVisit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Stats takes ?period=daily|monthly|yearly, daily when omitted.
func (h *DoctorHandler) Stats(c *gin.Context) {
	period, err := stats.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.doctor.Stats(period, h.now()))
}

func (h *DoctorHandler) TodayPatients(c *gin.Context) {
	c.JSON(http.StatusOK, h.doctor.TodayPatients(h.now()))
}

func (h *DoctorHandler) Reset(c *gin.Context) {
	if err := h.doctor.ResetToFactory(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *DoctorHandler) Initialize(c *gin.Context) {
	var settings models.ClinicSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.doctor.InitializeSystem(c.Request.Context(), settings); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
