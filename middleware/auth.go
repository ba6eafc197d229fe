package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management/models"
	"clinic-management/session"
)

// RequireRole rejects the request unless the session is logged in under one
// of roles. With no roles any logged-in identity passes.
func RequireRole(guard *session.Guard, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := guard.Current()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		if len(roles) > 0 && !hasRole(roles, identity.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not allowed"})
			return
		}

		c.Set("identity", identity)
		c.Next()
	}
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
