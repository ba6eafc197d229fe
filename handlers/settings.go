package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management/models"
	"clinic-management/store"
)

type SettingsHandler struct {
	store *store.Store
}

func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	var settings models.ClinicSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SaveSettings(c.Request.Context(), settings); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
