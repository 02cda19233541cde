package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pingme/auth"
)

// callerKey is where RequireAuth stores the authenticated user ID.
const callerKey = "caller_id"

// RequireAuth validates the Bearer token and injects the caller identity
// into the request context for downstream handlers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := auth.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(callerKey, claims.UserID)
		c.Next()
	}
}

// CallerID returns the authenticated user behind the request.
func CallerID(c *gin.Context) string {
	return c.GetString(callerKey)
}
