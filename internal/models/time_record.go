package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeRecord struct {
	ID            string     `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID        string     `gorm:"type:varchar(36);not null;index:idx_time_records_user_clock_in,priority:1" json:"user_id"`
	JobID         string     `gorm:"type:varchar(36);not null;index" json:"job_id"`
	ClockIn       time.Time  `gorm:"not null;index:idx_time_records_user_clock_in,priority:2" json:"clock_in"`
	ClockOut      *time.Time `json:"clock_out"`
	ClockInPhoto  *string    `gorm:"type:text" json:"clock_in_photo"`
	ClockOutPhoto *string    `gorm:"type:text" json:"clock_out_photo"`
	BreakMinutes  int        `gorm:"not null;default:0" json:"break_minutes"`
	Date          string     `gorm:"type:varchar(10);not null;index" json:"date"`
	Note          string     `gorm:"type:text" json:"note"`
	IsManualEdit  bool       `gorm:"not null;default:false" json:"is_manual_edit"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (r *TimeRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsOpen reports whether the record is still waiting for a clock-out.
func (r *TimeRecord) IsOpen() bool {
	return r.ClockOut == nil
}
