package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management/models"
	"clinic-management/session"
)

type AuthHandler struct {
	guard *session.Guard
}

func NewAuthHandler(guard *session.Guard) *AuthHandler {
	return &AuthHandler{guard: guard}
}

type LoginRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required,oneof=doctor secretary"`
}

type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if !h.guard.Login(req.Username, req.Password, req.Role) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	identity, _ := h.guard.Current()
	c.JSON(http.StatusOK, identity)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.guard.Logout()
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Session(c *gin.Context) {
	identity, ok := h.guard.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedIn": true, "username": identity.Username, "role": identity.Role})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.guard.ChangePassword(c.Request.Context(), models.Role(c.Param("role")), req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		notFound(c, "role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
