package middleware

import (
	"context"
	"errors"
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"club_system/internal/domain"
	"club_system/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middleware
const (
	UserIDKey  = "userID"
	SessionKey = "session"
)

// SessionLoader rebuilds the session of an authenticated user
type SessionLoader interface {
	LoadSession(ctx context.Context, userID uint) (*domain.Session, error)
}

// JWTAuthMiddleware validates JWT tokens and loads the caller's session
func JWTAuthMiddleware(secret string, sessions SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		// Role and club come from the store, not the token, so transfers show up immediately
		sess, err := sessions.LoadSession(c.Request.Context(), claims.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Set(SessionKey, sess)         // Store session in context
		c.Next()                        // Proceed to the next handler
	}
}

// SessionFrom returns the session stored by JWTAuthMiddleware, or nil
func SessionFrom(c *gin.Context) *domain.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*domain.Session)
	return sess
}
