package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
)

var (
	ErrUserNotFound = apierrors.NotFound("user not found")
	ErrTeamNotFound = apierrors.NotFound("team not found")
	ErrNotTeamScope = apierrors.Forbidden("user is not in your team")
)

// Clock returns the current instant. Services take one so tests can pin now.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// accessChecker answers "may actor see or act for user" questions shared by
// the record, statistics, schedule and export services.
type accessChecker struct {
	userRepo repository.UserRepository
	teamRepo repository.TeamRepository
}

func (a accessChecker) findUser(id string) (*models.User, error) {
	user, err := a.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apierrors.Store("find user", err)
	}
	return user, nil
}

// manages reports whether managerID manages the team userID belongs to.
func (a accessChecker) manages(managerID string, user *models.User) (bool, error) {
	if user.TeamID == nil {
		return false, nil
	}
	team, err := a.teamRepo.FindByID(*user.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apierrors.Store("find team", err)
	}
	return team.ManagerID == managerID, nil
}

// canView allows the user themself and their team manager.
func (a accessChecker) canView(actorID, userID string) error {
	if actorID == userID {
		return nil
	}
	user, err := a.findUser(userID)
	if err != nil {
		return err
	}
	ok, err := a.manages(actorID, user)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotTeamScope
	}
	return nil
}

// teamOf loads the team and checks that actor belongs to it.
func (a accessChecker) teamOf(actorID, teamID string) (*models.Team, error) {
	team, err := a.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, apierrors.Store("find team", err)
	}
	if team.ManagerID == actorID {
		return team, nil
	}
	actor, err := a.findUser(actorID)
	if err != nil {
		return nil, err
	}
	if actor.TeamID == nil || *actor.TeamID != team.ID {
		// Hide teams the actor is not part of.
		return nil, ErrTeamNotFound
	}
	return team, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
