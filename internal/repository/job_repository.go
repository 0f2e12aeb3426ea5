package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/models"
)

// GormJobRepository is a GORM implementation of JobRepository
type GormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *gorm.DB) JobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

func (r *GormJobRepository) FindByID(id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *GormJobRepository) ListByUser(userID string, includeRetired bool) ([]models.Job, error) {
	query := r.db.Where("user_id = ?", userID)
	if !includeRetired {
		query = query.Where("status = ?", models.JobStatusActive)
	}

	var jobs []models.Job
	if err := query.Order("created_at ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *GormJobRepository) CountActive(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Job{}).
		Where("user_id = ? AND status = ?", userID, models.JobStatusActive).
		Count(&count).Error
	return count, err
}

func (r *GormJobRepository) Update(id string, updates map[string]interface{}) error {
	result := r.db.Model(&models.Job{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
