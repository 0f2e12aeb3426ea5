package dto

import (
	"fmt"
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/utils"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

// TimeRecordDTO represents a time record in API responses. Photos are exposed
// as URLs rather than inline payloads.
type TimeRecordDTO struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	JobID         string     `json:"jobId"`
	ClockIn       time.Time  `json:"clockIn"`
	ClockOut      *time.Time `json:"clockOut"`
	ClockInPhoto  *string    `json:"clockInPhoto"`
	ClockOutPhoto *string    `json:"clockOutPhoto"`
	BreakMinutes  int        `json:"breakMinutes"`
	Date          string     `json:"date"`
	Note          string     `json:"note"`
	IsManualEdit  bool       `json:"isManualEdit"`
	MinutesWorked int        `json:"minutesWorked"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TimeRecordListResponse represents a paginated list of time records
type TimeRecordListResponse struct {
	Records    []TimeRecordDTO           `json:"records"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// ClockStatusDTO is the caller's idle/working state.
type ClockStatusDTO struct {
	State       string         `json:"state"`
	Record      *TimeRecordDTO `json:"record"`
	LiveMinutes int            `json:"liveMinutes"`
}

func photoURL(recordID, kind string, ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	url := fmt.Sprintf("/api/records/%s/photos/%s", recordID, kind)
	return &url
}

func ToTimeRecordDTO(record models.TimeRecord) TimeRecordDTO {
	return TimeRecordDTO{
		ID:            record.ID,
		UserID:        record.UserID,
		JobID:         record.JobID,
		ClockIn:       record.ClockIn,
		ClockOut:      record.ClockOut,
		ClockInPhoto:  photoURL(record.ID, "clock-in", record.ClockInPhoto),
		ClockOutPhoto: photoURL(record.ID, "clock-out", record.ClockOutPhoto),
		BreakMinutes:  record.BreakMinutes,
		Date:          record.Date,
		Note:          record.Note,
		IsManualEdit:  record.IsManualEdit,
		MinutesWorked: worktime.MinutesWorked(&record),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func ToTimeRecordDTOs(records []models.TimeRecord) []TimeRecordDTO {
	out := make([]TimeRecordDTO, len(records))
	for i, r := range records {
		out[i] = ToTimeRecordDTO(r)
	}
	return out
}

func ToClockStatusDTO(state string, record *models.TimeRecord, liveMinutes int) ClockStatusDTO {
	dto := ClockStatusDTO{State: state, LiveMinutes: liveMinutes}
	if record != nil {
		r := ToTimeRecordDTO(*record)
		dto.Record = &r
	}
	return dto
}
