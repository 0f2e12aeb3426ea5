package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/database"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
)

// RequireRecordAccess checks that the user owns the time record named by :id
// or manages the owner's team.
func RequireRecordAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.RespondUnauthorized(c, "")
			c.Abort()
			return
		}

		var record models.TimeRecord
		if err := database.GetDB().Where("id = ?", c.Param("id")).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.RespondNotFound(c, "Time record not found")
			} else {
				apierrors.Respond(c, apierrors.Store("find time record", err))
			}
			c.Abort()
			return
		}

		if record.UserID != userID {
			var count int64
			err := database.GetDB().Model(&models.User{}).
				Joins("JOIN teams ON teams.id = users.team_id").
				Where("users.id = ? AND teams.manager_id = ?", record.UserID, userID).
				Count(&count).Error
			if err != nil {
				apierrors.Respond(c, apierrors.Store("check record access", err))
				c.Abort()
				return
			}
			if count == 0 {
				// Return 404 instead of 403 to avoid leaking record existence
				apierrors.RespondNotFound(c, "Time record not found")
				c.Abort()
				return
			}
		}

		c.Set(ContextKeyRecord, record)
		c.Next()
	}
}
