package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

type User struct {
	ID            string     `gorm:"type:varchar(36);primarykey" json:"id"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name          string     `gorm:"type:varchar(100);not null" json:"name"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Avatar        *string    `gorm:"type:text" json:"avatar,omitempty"`
	Role          UserRole   `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	TeamID        *string    `gorm:"type:varchar(36);index" json:"team_id"`
	IsPremium     bool       `gorm:"not null;default:false" json:"is_premium"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPremium reports whether premium features are unlocked at now.
func (u *User) HasPremium(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumExpiry == nil || now.Before(*u.PremiumExpiry)
}
