package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/constants"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
)

// TokenParser validates a bearer token and returns the user ID it carries.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// RequireAuth accepts either the session cookie or an Authorization bearer token.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(constants.ContextKeyUserID).(string); ok && userID != "" {
			// Store user ID in context for easy access in handlers
			c.Set(constants.ContextKeyUserID, userID)
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if tokens != nil && strings.HasPrefix(auth, "Bearer ") {
			userID, err := tokens.ParseToken(strings.TrimSpace(auth[len("Bearer "):]))
			if err != nil {
				apierrors.RespondUnauthorized(c, "Invalid or expired token")
				c.Abort()
				return
			}
			c.Set(constants.ContextKeyUserID, userID)
			c.Next()
			return
		}

		apierrors.RespondUnauthorized(c, "")
		c.Abort()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// RequireAdminToken guards back-office routes with a shared token header.
// An empty configured token disables the routes.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(constants.AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			apierrors.RespondForbidden(c, "Admin token required")
			c.Abort()
			return
		}
		c.Next()
	}
}
