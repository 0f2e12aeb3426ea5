package dto

import (
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Avatar        *string         `json:"avatar,omitempty"`
	Role          models.UserRole `json:"role"`
	TeamID        *string         `json:"teamId"`
	IsPremium     bool            `json:"isPremium"`
	PremiumExpiry *time.Time      `json:"premiumExpiry,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// MemberDTO is the public view of a teammate.
type MemberDTO struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Avatar *string         `json:"avatar,omitempty"`
	Role   models.UserRole `json:"role"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Avatar:        user.Avatar,
		Role:          user.Role,
		TeamID:        user.TeamID,
		IsPremium:     user.IsPremium,
		PremiumExpiry: user.PremiumExpiry,
		CreatedAt:     user.CreatedAt,
	}
}

func ToMemberDTO(user models.User) MemberDTO {
	return MemberDTO{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Avatar: user.Avatar,
		Role:   user.Role,
	}
}

func ToMemberDTOs(users []models.User) []MemberDTO {
	out := make([]MemberDTO, len(users))
	for i, u := range users {
		out[i] = ToMemberDTO(u)
	}
	return out
}
