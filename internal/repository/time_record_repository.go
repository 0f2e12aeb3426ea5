package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/database"
	"github.com/yukikurage/timecard-api/internal/models"
)

// GormTimeRecordRepository is a GORM implementation of TimeRecordRepository
type GormTimeRecordRepository struct {
	db *gorm.DB
}

// NewTimeRecordRepository creates a new TimeRecordRepository
func NewTimeRecordRepository(db *gorm.DB) TimeRecordRepository {
	return &GormTimeRecordRepository{db: db}
}

func (r *GormTimeRecordRepository) Create(record *models.TimeRecord) error {
	return r.db.Create(record).Error
}

func (r *GormTimeRecordRepository) FindByID(id string) (*models.TimeRecord, error) {
	var record models.TimeRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *GormTimeRecordRepository) FindOpenByUser(userID string) (*models.TimeRecord, error) {
	var record models.TimeRecord
	err := r.db.Where("user_id = ? AND clock_out IS NULL", userID).
		Order("clock_in DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List retrieves records with filtering and pagination
func (r *GormTimeRecordRepository) List(filter RecordFilter) ([]models.TimeRecord, int64, error) {
	var records []models.TimeRecord

	if len(filter.UserIDs) == 0 {
		return []models.TimeRecord{}, 0, nil
	}

	query := r.db.Model(&models.TimeRecord{}).Where("user_id IN ?", filter.UserIDs)

	if filter.JobID != "" {
		query = query.Where("job_id = ?", filter.JobID)
	}
	query = query.Scopes(database.DateBetween("date", filter.StartDate, filter.EndDate))
	if filter.ClockInFrom != nil {
		query = query.Where("clock_in >= ?", *filter.ClockInFrom)
	}
	if filter.ClockInTo != nil {
		query = query.Where("clock_in < ?", *filter.ClockInTo)
	}
	if filter.OnlyClosed {
		query = query.Where("clock_out IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.Ascending {
		listQuery = listQuery.Order("clock_in ASC")
	} else {
		listQuery = listQuery.Order("clock_in DESC")
	}

	if err := listQuery.Scopes(database.Paginate(filter.Pagination)).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *GormTimeRecordRepository) Update(record *models.TimeRecord) error {
	return r.db.Save(record).Error
}

func (r *GormTimeRecordRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.TimeRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
