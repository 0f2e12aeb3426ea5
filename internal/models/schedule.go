package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleMode string

const (
	ScheduleModeDate   ScheduleMode = "date"
	ScheduleModeWeekly ScheduleMode = "weekly"
)

type Schedule struct {
	ID        string       `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string       `gorm:"type:varchar(36);not null;index" json:"user_id"`
	JobID     *string      `gorm:"type:varchar(36);index" json:"job_id"`
	Mode      ScheduleMode `gorm:"type:varchar(10);not null;default:'date'" json:"mode"`
	Date      *string      `gorm:"type:varchar(10);index" json:"date"`
	Weekday   *int         `json:"weekday"`
	StartTime string       `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string       `gorm:"type:varchar(5);not null" json:"end_time"`
	Note      string       `gorm:"type:text" json:"note"`
	CreatedBy string       `gorm:"type:varchar(36);not null" json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (s *Schedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
