package dto

import (
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
)

// JobDTO represents a job in API responses. IsActive mirrors Status for
// clients that predate the lifecycle field.
type JobDTO struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	HourlyRate     float64          `json:"hourlyRate"`
	DailyHourLimit float64          `json:"dailyHourLimit"`
	Status         models.JobStatus `json:"status"`
	IsActive       bool             `json:"isActive"`
	Color          string           `json:"color"`
	CreatedAt      time.Time        `json:"createdAt"`
}

func ToJobDTO(job models.Job) JobDTO {
	return JobDTO{
		ID:             job.ID,
		UserID:         job.UserID,
		Name:           job.Name,
		HourlyRate:     job.HourlyRate,
		DailyHourLimit: job.DailyHourLimit,
		Status:         job.Status,
		IsActive:       job.IsActive(),
		Color:          job.Color,
		CreatedAt:      job.CreatedAt,
	}
}

func ToJobDTOs(jobs []models.Job) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		out[i] = ToJobDTO(j)
	}
	return out
}
