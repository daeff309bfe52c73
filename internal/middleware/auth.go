package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// AuthMiddleware accepts a bearer token from the Authorization header, or
// from the token query parameter for clients that cannot set headers.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				abort(c, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		// Set user info in the context for handlers to use
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)

		c.Next()
	}
}

// Authorize lets through only the given roles.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "User role "+role+" is not authorized to access this route")
	}
}
