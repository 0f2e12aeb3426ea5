package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/middleware"
	"github.com/yukikurage/timecard-api/internal/utils"
)

// currentUser returns the authenticated user ID or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.RespondUnauthorized(c, "Not authenticated")
		return "", false
	}
	return userID, true
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return v, true
}

func paginationResponse(params utils.PaginationParams, total int64) *utils.PaginationResponse {
	if params.Limit <= 0 {
		return nil
	}
	return &utils.PaginationResponse{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	}
}
