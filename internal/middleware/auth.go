package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// ContextKeySessionID holds the uuid.UUID of the authenticated session.
const ContextKeySessionID = "session_id"

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": msg},
	})
}

// SessionAuth returns Gin middleware that validates the session bearer token
// and requires its session claim to match the :id path parameter.
func SessionAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authService.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		if id := c.Param("id"); id != "" && id != claims.SessionID.String() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "token does not grant access to this session"},
			})
			return
		}

		c.Set(ContextKeySessionID, claims.SessionID)
		c.Next()
	}
}

// GetSessionID extracts the authenticated session ID from the Gin context.
func GetSessionID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeySessionID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}
