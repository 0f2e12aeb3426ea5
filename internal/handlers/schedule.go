package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ListSchedules returns the caller's schedules, optionally for one month.
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
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

	schedules, err := h.scheduleService.List(userID, year, month)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToScheduleDTOs(schedules))
}

// ListTeamSchedules returns every member's schedules. Manager only.
func (h *ScheduleHandler) ListTeamSchedules(c *gin.Context) {
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

	schedules, err := h.scheduleService.ListTeam(userID, c.Param("teamId"), year, month)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToScheduleDTOs(schedules))
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateScheduleRequest struct {
		UserID    string              `json:"userId"`
		JobID     *string             `json:"jobId"`
		Mode      models.ScheduleMode `json:"mode"`
		Date      *string             `json:"date"`
		Weekday   *int                `json:"weekday"`
		StartTime string              `json:"startTime" binding:"required"`
		EndTime   string              `json:"endTime" binding:"required"`
		Note      string              `json:"note"`
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	schedule, err := h.scheduleService.Create(userID, services.CreateScheduleInput{
		UserID:    req.UserID,
		JobID:     req.JobID,
		Mode:      req.Mode,
		Date:      req.Date,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToScheduleDTO(*schedule))
}

// GenerateSchedules turns free text into dated shifts via the AI assistant.
func (h *ScheduleHandler) GenerateSchedules(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type GenerateSchedulesRequest struct {
		Text   string  `json:"text" binding:"required"`
		UserID string  `json:"userId"`
		JobID  *string `json:"jobId"`
		Save   bool    `json:"save"`
	}

	var req GenerateSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "text is required")
		return
	}

	schedules, err := h.scheduleService.Generate(c.Request.Context(), userID, services.GenerateSchedulesInput{
		Text:   req.Text,
		UserID: req.UserID,
		JobID:  req.JobID,
		Save:   req.Save,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToScheduleDTOs(schedules))
}

func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateScheduleRequest struct {
		JobID     *string              `json:"jobId"`
		Mode      *models.ScheduleMode `json:"mode"`
		Date      *string              `json:"date"`
		Weekday   *int                 `json:"weekday"`
		StartTime *string              `json:"startTime"`
		EndTime   *string              `json:"endTime"`
		Note      *string              `json:"note"`
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	schedule, err := h.scheduleService.Update(userID, c.Param("id"), services.UpdateScheduleInput{
		JobID:     req.JobID,
		Mode:      req.Mode,
		Date:      req.Date,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToScheduleDTO(*schedule))
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted successfully"})
}
