package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/models"
)

// GormScheduleRepository is a GORM implementation of ScheduleRepository
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) Create(schedule *models.Schedule) error {
	return r.db.Create(schedule).Error
}

func (r *GormScheduleRepository) FindByID(id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.Where("id = ?", id).First(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *GormScheduleRepository) List(filter ScheduleFilter) ([]models.Schedule, error) {
	if len(filter.UserIDs) == 0 {
		return []models.Schedule{}, nil
	}

	query := r.db.Where("user_id IN ?", filter.UserIDs)
	if filter.FromDate != "" || filter.ToDate != "" {
		dated := r.db.Where("mode = ?", models.ScheduleModeDate)
		if filter.FromDate != "" {
			dated = dated.Where("date >= ?", filter.FromDate)
		}
		if filter.ToDate != "" {
			dated = dated.Where("date <= ?", filter.ToDate)
		}
		query = query.Where(r.db.Where(dated).Or("mode = ?", models.ScheduleModeWeekly))
	}

	var schedules []models.Schedule
	err := query.
		Order("CASE WHEN date IS NULL THEN 1 ELSE 0 END, date ASC").
		Order("weekday ASC").
		Order("start_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *GormScheduleRepository) Update(schedule *models.Schedule) error {
	return r.db.Save(schedule).Error
}

func (r *GormScheduleRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
