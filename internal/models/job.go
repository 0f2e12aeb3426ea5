package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobStatus is the lifecycle state of a job. Retired jobs are hidden from
// pickers but stay resolvable for historical records.
type JobStatus string

const (
	JobStatusActive  JobStatus = "active"
	JobStatusRetired JobStatus = "retired"
)

type Job struct {
	ID             string    `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID         string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	HourlyRate     float64   `gorm:"not null" json:"hourly_rate"`
	DailyHourLimit float64   `gorm:"not null;default:8" json:"daily_hour_limit"`
	Status         JobStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Color          string    `gorm:"type:varchar(7)" json:"color"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

func (j *Job) IsActive() bool {
	return j.Status == JobStatusActive
}
