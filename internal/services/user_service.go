package services

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/constants"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
)

var (
	ErrNotYourAccount = apierrors.Forbidden("you can only change your own account")
	ErrNothingToApply = apierrors.Validation("no updatable fields supplied")
)

// UserService manages profiles, premium flags and account deletion.
type UserService struct {
	userRepo repository.UserRepository
	access   accessChecker
	now      Clock
}

func NewUserService(userRepo repository.UserRepository, teamRepo repository.TeamRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		access:   accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		now:      systemClock,
	}
}

// GetUser returns targetID to the user themself, a teammate or their manager.
func (s *UserService) GetUser(actorID, targetID string) (*models.User, error) {
	target, err := s.access.findUser(targetID)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return target, nil
	}

	actor, err := s.access.findUser(actorID)
	if err != nil {
		return nil, err
	}
	if actor.TeamID != nil && target.TeamID != nil && *actor.TeamID == *target.TeamID {
		return target, nil
	}
	if ok, err := s.access.manages(actorID, target); err != nil {
		return nil, err
	} else if ok {
		return target, nil
	}
	return nil, ErrUserNotFound
}

// UpdateUserInput lists the profile fields a user may change.
type UpdateUserInput struct {
	Name   *string
	Avatar *string
}

func (s *UserService) UpdateProfile(actorID, targetID string, input UpdateUserInput) (*models.User, error) {
	if actorID != targetID {
		return nil, ErrNotYourAccount
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if len([]rune(name)) > constants.MaxNameLength {
			return nil, ErrNameTooLong
		}
		updates["name"] = name
	}
	if input.Avatar != nil {
		if *input.Avatar == "" {
			updates["avatar"] = nil
		} else {
			updates["avatar"] = *input.Avatar
		}
	}
	if len(updates) == 0 {
		return nil, ErrNothingToApply
	}

	if err := s.userRepo.Update(targetID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apierrors.Store("update user", err)
	}
	return s.access.findUser(targetID)
}

// SetPremium toggles premium for back-office tooling. A nil expiry never expires.
func (s *UserService) SetPremium(targetID string, isPremium bool, expiry *time.Time) (*models.User, error) {
	updates := map[string]interface{}{
		"is_premium":     isPremium,
		"premium_expiry": expiry,
	}
	if !isPremium {
		updates["premium_expiry"] = nil
	}
	if err := s.userRepo.Update(targetID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apierrors.Store("update premium", err)
	}
	slog.Info("premium updated", "user_id", targetID, "is_premium", isPremium)
	return s.access.findUser(targetID)
}

// DeleteUser removes the account and everything it owns. Deleting a manager
// also deletes their team and clears the team reference of its members.
func (s *UserService) DeleteUser(actorID, targetID string) error {
	if actorID != targetID {
		return ErrNotYourAccount
	}

	summary, err := s.userRepo.DeleteCascade(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return apierrors.Store("delete user", err)
	}

	slog.Info("user deleted",
		"user_id", targetID,
		"jobs", summary.Jobs,
		"records", summary.Records,
		"schedules", summary.Schedules,
		"team_deleted", summary.TeamDeleted,
		"members_cleared", summary.MembersCleared,
	)
	return nil
}
