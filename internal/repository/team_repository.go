package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/models"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithManager creates the team and sets the manager's team reference atomically.
func (r *GormTeamRepository) CreateWithManager(team *models.Team) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		result := tx.Model(&models.User{}).Where("id = ?", team.ManagerID).Update("team_id", team.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByInviteCode finds a team by invite code. Codes are stored upper-case.
func (r *GormTeamRepository) FindByInviteCode(code string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("invite_code = ?", strings.ToUpper(code)).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *GormTeamRepository) FindByManager(managerID string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("manager_id = ?", managerID).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *GormTeamRepository) InviteCodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Team{}).Where("invite_code = ?", strings.ToUpper(code)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}
