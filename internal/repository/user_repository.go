package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(id string, updates map[string]interface{}) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) ListByTeam(teamID string) ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("team_id = ?", teamID).Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUserRepository) SetTeam(userID string, teamID *string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("team_id", teamID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCascade removes the user and everything they own in one transaction.
func (r *GormUserRepository) DeleteCascade(userID string) (*DeleteSummary, error) {
	summary := &DeleteSummary{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		var team models.Team
		err := tx.Where("manager_id = ?", userID).First(&team).Error
		switch {
		case err == nil:
			cleared := tx.Model(&models.User{}).Where("team_id = ?", team.ID).Update("team_id", nil)
			if cleared.Error != nil {
				return fmt.Errorf("clear team members: %w", cleared.Error)
			}
			summary.MembersCleared = cleared.RowsAffected
			if err := tx.Where("id = ?", team.ID).Delete(&models.Team{}).Error; err != nil {
				return fmt.Errorf("delete team: %w", err)
			}
			summary.TeamDeleted = true
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find managed team: %w", err)
		}

		records := tx.Where("user_id = ?", userID).Delete(&models.TimeRecord{})
		if records.Error != nil {
			return fmt.Errorf("delete records: %w", records.Error)
		}
		summary.Records = records.RowsAffected

		schedules := tx.Where("user_id = ?", userID).Delete(&models.Schedule{})
		if schedules.Error != nil {
			return fmt.Errorf("delete schedules: %w", schedules.Error)
		}
		summary.Schedules = schedules.RowsAffected

		jobs := tx.Where("user_id = ?", userID).Delete(&models.Job{})
		if jobs.Error != nil {
			return fmt.Errorf("delete jobs: %w", jobs.Error)
		}
		summary.Jobs = jobs.RowsAffected

		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
