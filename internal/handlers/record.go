package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/services"
	"github.com/yukikurage/timecard-api/internal/utils"
)

// RecordHandler exposes the clock engine and record history.
type RecordHandler struct {
	recordService *services.RecordService
	exportService *services.ExportService
}

func NewRecordHandler(recordService *services.RecordService, exportService *services.ExportService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		exportService: exportService,
	}
}

// ClockIn opens a record for the caller. A second clock-in while working is a 409.
func (h *RecordHandler) ClockIn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type ClockInRequest struct {
		UserID       string `json:"userId"`
		JobID        string `json:"jobId" binding:"required"`
		ClockInPhoto string `json:"clockInPhoto"`
	}

	var req ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "jobId is required")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		apierrors.RespondForbidden(c, "Cannot clock in for another user")
		return
	}

	record, err := h.recordService.ClockIn(c.Request.Context(), userID, services.ClockInInput{
		JobID: req.JobID,
		Photo: req.ClockInPhoto,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTimeRecordDTO(*record))
}

// ClockOut closes the caller's open record.
func (h *RecordHandler) ClockOut(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type ClockOutRequest struct {
		UserID        string  `json:"userId"`
		ClockOutPhoto string  `json:"clockOutPhoto"`
		Note          *string `json:"note"`
		BreakMinutes  *int    `json:"breakMinutes"`
	}

	var req ClockOutRequest
	// An empty body, sized or chunked, is a plain clock-out.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		apierrors.RespondForbidden(c, "Cannot clock out for another user")
		return
	}

	record, err := h.recordService.ClockOut(c.Request.Context(), userID, services.ClockOutInput{
		Photo:        req.ClockOutPhoto,
		Note:         req.Note,
		BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeRecordDTO(*record))
}

// GetOpenRecord returns the caller's open record or null.
func (h *RecordHandler) GetOpenRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	record, err := h.recordService.GetOpenRecord(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeRecordDTO(*record))
}

func (h *RecordHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.recordService.Status(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToClockStatus(status))
}

// ListRecords lists records of the caller or, for a manager, of a member.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.recordService.ListRecords(c.Request.Context(), userID, services.ListRecordsInput{
		UserID:     c.Query("userId"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
		JobID:      c.Query("jobId"),
		Order:      c.Query("order"),
		Pagination: params,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TimeRecordListResponse{
		Records:    dto.ToTimeRecordDTOs(records),
		Pagination: paginationResponse(params, total),
	})
}

// ExportRecords streams an xlsx timesheet.
func (h *RecordHandler) ExportRecords(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.exportService.Export(c.Request.Context(), userID, services.ExportInput{
		UserID:    c.Query("userId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		JobID:     c.Query("jobId"),
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, services.ExportContentType, result.Data)
}

func (h *RecordHandler) GetRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	record, err := h.recordService.GetRecord(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeRecordDTO(*record))
}

// UpdateRecord applies a manual correction. The record is flagged as edited.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateRecordRequest struct {
		ClockIn       *time.Time `json:"clockIn"`
		ClockOut      *time.Time `json:"clockOut"`
		ClearClockOut bool       `json:"clearClockOut"`
		BreakMinutes  *int       `json:"breakMinutes"`
		Note          *string    `json:"note"`
		JobID         *string    `json:"jobId"`
	}

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	record, err := h.recordService.UpdateRecord(c.Request.Context(), userID, c.Param("id"), services.UpdateRecordInput{
		ClockIn:       req.ClockIn,
		ClockOut:      req.ClockOut,
		ClearClockOut: req.ClearClockOut,
		BreakMinutes:  req.BreakMinutes,
		Note:          req.Note,
		JobID:         req.JobID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeRecordDTO(*record))
}

func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.recordService.DeleteRecord(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Time record deleted successfully"})
}

// GetPhoto serves a stored clock-in or clock-out photo.
func (h *RecordHandler) GetPhoto(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	data, contentType, err := h.recordService.Photo(c.Request.Context(), userID, c.Param("id"), c.Param("kind"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}
