package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// ListJobs returns the caller's jobs. Retired jobs are included on request.
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	includeRetired, _ := strconv.ParseBool(c.DefaultQuery("includeRetired", "false"))

	jobs, err := h.jobService.ListJobs(userID, includeRetired)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobDTOs(jobs))
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateJobRequest struct {
		Name           string   `json:"name" binding:"required"`
		HourlyRate     float64  `json:"hourlyRate"`
		DailyHourLimit *float64 `json:"dailyHourLimit"`
		Color          string   `json:"color"`
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.jobService.CreateJob(userID, services.CreateJobInput{
		Name:           req.Name,
		HourlyRate:     req.HourlyRate,
		DailyHourLimit: req.DailyHourLimit,
		Color:          req.Color,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToJobDTO(*job))
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateJobRequest struct {
		Name           *string  `json:"name"`
		HourlyRate     *float64 `json:"hourlyRate"`
		DailyHourLimit *float64 `json:"dailyHourLimit"`
		Color          *string  `json:"color"`
	}

	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.jobService.UpdateJob(userID, c.Param("id"), services.UpdateJobInput{
		Name:           req.Name,
		HourlyRate:     req.HourlyRate,
		DailyHourLimit: req.DailyHourLimit,
		Color:          req.Color,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobDTO(*job))
}

// RetireJob soft-deletes a job; its records are kept.
func (h *JobHandler) RetireJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	job, err := h.jobService.RetireJob(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobDTO(*job))
}

func (h *JobHandler) RestoreJob(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	job, err := h.jobService.RestoreJob(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobDTO(*job))
}
