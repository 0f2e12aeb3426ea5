package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/services"
)

type StatsHandler struct {
	statsService *services.StatisticsService
}

func NewStatsHandler(statsService *services.StatisticsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStatistics returns the dashboard: today, this week, this month and totals.
func (h *StatsHandler) GetStatistics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.statsService.GetStatistics(c.Request.Context(), userID, services.StatsInput{
		UserID: c.Query("userId"),
		JobID:  c.Query("jobId"),
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsDTO(result))
}

// GetMonthly returns one month's summary with per-day totals.
func (h *StatsHandler) GetMonthly(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}

	result, err := h.statsService.Monthly(c.Request.Context(), userID, services.MonthlyInput{
		UserID: c.Query("userId"),
		JobID:  c.Query("jobId"),
		Year:   year,
		Month:  month,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMonthlyDTO(result))
}
