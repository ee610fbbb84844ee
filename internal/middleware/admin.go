package middleware

import (
	"net/http" // HTTP status codes
	"slices"

	"club_system/internal/domain"

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware lets only system admins through
func AdminOnlyMiddleware() gin.HandlerFunc {
	return RequireRoles(domain.RoleSystemAdmin)
}

// RequireRoles checks the session role loaded by JWTAuthMiddleware
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		// Check if a session exists in context
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if the role is allowed
		if !slices.Contains(roles, sess.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}
