package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/database"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
)

// Context keys set by the team and record access middleware.
const (
	ContextKeyTeam   = "team"
	ContextKeyRecord = "time_record"
)

// RequireTeamAccess checks that the user manages or belongs to the team named
// by the :id parameter.
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID := c.Param("id")
		if teamID == "" {
			teamID = c.Param("teamId")
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.RespondUnauthorized(c, "")
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().Where("id = ?", teamID).First(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.RespondNotFound(c, "Team not found")
			} else {
				apierrors.Respond(c, apierrors.Store("find team", err))
			}
			c.Abort()
			return
		}

		if team.ManagerID != userID {
			var count int64
			err := database.GetDB().Model(&models.User{}).
				Where("id = ? AND team_id = ?", userID, team.ID).
				Count(&count).Error
			if err != nil {
				apierrors.Respond(c, apierrors.Store("check team membership", err))
				c.Abort()
				return
			}
			if count == 0 {
				// Return 404 instead of 403 to avoid leaking team existence
				apierrors.RespondNotFound(c, "Team not found")
				c.Abort()
				return
			}
		}

		c.Set(ContextKeyTeam, team)
		c.Next()
	}
}

// RequireTeamManager checks that the user manages the team loaded by
// RequireTeamAccess.
func RequireTeamManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, ok := c.Get(ContextKeyTeam)
		if !ok {
			apierrors.RespondForbidden(c, "Team access required")
			c.Abort()
			return
		}
		userID, _ := GetUserID(c)
		if t, ok := team.(models.Team); !ok || t.ManagerID != userID {
			apierrors.RespondForbidden(c, "Only the team manager can perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}
