package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management/clinic"
	"clinic-management/models"
)

type PatientHandler struct {
	secretary *clinic.Secretary
	search    *PatientSearch
}

func NewPatientHandler(secretary *clinic.Secretary, search *PatientSearch) *PatientHandler {
	return &PatientHandler{secretary: secretary, search: search}
}

type PatientRequest struct {
	Name              string `json:"name" binding:"required,min=2,max=100"`
	Phone             string `json:"phone" binding:"required"`
	Address           string `json:"address"`
	Age               int    `json:"age" binding:"gte=0"`
	BloodType         string `json:"bloodType"`
	Allergies         string `json:"allergies"`
	ChronicDiseases   string `json:"chronicDiseases"`
	PreviousSurgeries string `json:"previousSurgeries"`
	FamilyHistory     string `json:"familyHistory"`
	Notes             string `json:"notes"`
}

func (h *PatientHandler) ListPatients(c *gin.Context) {
	c.JSON(http.StatusOK, h.secretary.Patients())
}

// CreatePatient registers the patient, or returns the id already held for
// the phone number.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.secretary.RegisterPatient(c.Request.Context(), models.Patient{
		Name:              req.Name,
		Phone:             req.Phone,
		Address:           req.Address,
		Age:               req.Age,
		BloodType:         req.BloodType,
		Allergies:         req.Allergies,
		ChronicDiseases:   req.ChronicDiseases,
		PreviousSurgeries: req.PreviousSurgeries,
		FamilyHistory:     req.FamilyHistory,
		Notes:             req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *PatientHandler) SearchPatients(c *gin.Context) {
	c.JSON(http.StatusOK, h.search.Search(c.Request.Context(), c.Query("q")))
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var patch models.PatientUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.secretary.UpdatePatient(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		notFound(c, "patient")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *PatientHandler) PatientAppointments(c *gin.Context) {
	c.JSON(http.StatusOK, h.secretary.PatientAppointments(c.Param("id")))
}
