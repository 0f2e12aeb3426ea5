package dto

import (
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
)

// TeamDTO represents a team in API responses. The invite code is only shown
// to the manager.
type TeamDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ManagerID   string    `json:"managerId"`
	InviteCode  string    `json:"inviteCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToTeamDTO(team models.Team, viewerID string) TeamDTO {
	dto := TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		ManagerID:   team.ManagerID,
		CreatedAt:   team.CreatedAt,
	}
	if viewerID == team.ManagerID {
		dto.InviteCode = team.InviteCode
	}
	return dto
}
