package dto

import (
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
)

// ScheduleDTO represents a planned shift in API responses
type ScheduleDTO struct {
	ID        string              `json:"id,omitempty"`
	UserID    string              `json:"userId"`
	JobID     *string             `json:"jobId"`
	Mode      models.ScheduleMode `json:"mode"`
	Date      *string             `json:"date"`
	Weekday   *int                `json:"weekday"`
	StartTime string              `json:"startTime"`
	EndTime   string              `json:"endTime"`
	Note      string              `json:"note"`
	CreatedBy string              `json:"createdBy"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
}

func ToScheduleDTO(s models.Schedule) ScheduleDTO {
	dto := ScheduleDTO{
		ID:        s.ID,
		UserID:    s.UserID,
		JobID:     s.JobID,
		Mode:      s.Mode,
		Date:      s.Date,
		Weekday:   s.Weekday,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Note:      s.Note,
		CreatedBy: s.CreatedBy,
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt
		dto.CreatedAt = &created
	}
	return dto
}

func ToScheduleDTOs(schedules []models.Schedule) []ScheduleDTO {
	out := make([]ScheduleDTO, len(schedules))
	for i, s := range schedules {
		out[i] = ToScheduleDTO(s)
	}
	return out
}
