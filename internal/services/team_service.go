package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/constants"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/timezone"
	"github.com/yukikurage/timecard-api/internal/utils"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

var (
	ErrInvalidTeamName            = apierrors.Validation("team name cannot be empty")
	ErrOnlyManagersCreateTeams    = apierrors.Forbidden("only managers can create teams")
	ErrManagerAlreadyHasTeam      = apierrors.Conflict("manager already has a team")
	ErrAlreadyInTeam              = apierrors.Conflict("user already belongs to a team")
	ErrInvalidInviteCode          = apierrors.NotFound("invalid invite code")
	ErrNotInTeam                  = apierrors.Validation("user is not in a team")
	ErrManagerCannotLeave         = apierrors.Validation("a manager cannot leave their own team")
	ErrNotTeamManager             = apierrors.Forbidden("only the team manager can perform this action")
	ErrCannotRemoveYourself       = apierrors.Validation("cannot remove yourself from the team")
	ErrTeamMemberNotFound         = apierrors.NotFound("team member not found")
	ErrInvalidRollupView          = apierrors.Validation("view must be members or employees")
	ErrInvalidMonth               = apierrors.Validation("month must be between 1 and 12")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate a unique invite code")
)

// TeamService provides team membership and the manager roll-up.
type TeamService struct {
	teamRepo     repository.TeamRepository
	userRepo     repository.UserRepository
	jobRepo      repository.JobRepository
	recordRepo   repository.TimeRecordRepository
	access       accessChecker
	now          Clock
	loc          *time.Location
	defaultLimit float64
}

func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	jobRepo repository.JobRepository,
	recordRepo repository.TimeRecordRepository,
	loc *time.Location,
	defaultLimit float64,
) *TeamService {
	return &TeamService{
		teamRepo:     teamRepo,
		userRepo:     userRepo,
		jobRepo:      jobRepo,
		recordRepo:   recordRepo,
		access:       accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		now:          systemClock,
		loc:          loc,
		defaultLimit: defaultLimit,
	}
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name        string
	Description string
}

// CreateTeam creates a team managed by managerID with a fresh invite code.
func (s *TeamService) CreateTeam(managerID string, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	manager, err := s.access.findUser(managerID)
	if err != nil {
		return nil, err
	}
	if manager.Role != models.RoleManager {
		return nil, ErrOnlyManagersCreateTeams
	}
	if manager.TeamID != nil {
		return nil, ErrManagerAlreadyHasTeam
	}

	code, err := s.uniqueInviteCode()
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ManagerID:   managerID,
		InviteCode:  code,
	}
	if err := s.teamRepo.CreateWithManager(team); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrManagerAlreadyHasTeam
		}
		return nil, apierrors.Store("create team", err)
	}

	slog.Info("team created", "team_id", team.ID, "manager_id", managerID)
	return team, nil
}

func (s *TeamService) uniqueInviteCode() (string, error) {
	for i := 0; i < constants.InviteCodeMaxAttempts; i++ {
		code, err := utils.GenerateInviteCode()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInviteCodeGenerationFailed, err)
		}
		exists, err := s.teamRepo.InviteCodeExists(code)
		if err != nil {
			return "", apierrors.Store("check invite code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrInviteCodeGenerationFailed
}

// JoinTeam adds userID to the team holding inviteCode, ignoring case.
func (s *TeamService) JoinTeam(userID, inviteCode string) (*models.Team, error) {
	code := utils.NormalizeInviteCode(inviteCode)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}

	user, err := s.access.findUser(userID)
	if err != nil {
		return nil, err
	}
	if user.TeamID != nil {
		return nil, ErrAlreadyInTeam
	}

	team, err := s.teamRepo.FindByInviteCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, apierrors.Store("find team by invite code", err)
	}

	if err := s.userRepo.SetTeam(userID, &team.ID); err != nil {
		return nil, apierrors.Store("join team", err)
	}

	slog.Info("team joined", "team_id", team.ID, "user_id", userID)
	return team, nil
}

func (s *TeamService) LeaveTeam(userID string) error {
	user, err := s.access.findUser(userID)
	if err != nil {
		return err
	}
	if user.TeamID == nil {
		return ErrNotInTeam
	}
	if team, err := s.teamRepo.FindByID(*user.TeamID); err == nil && team.ManagerID == userID {
		return ErrManagerCannotLeave
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.Store("find team", err)
	}

	if err := s.userRepo.SetTeam(userID, nil); err != nil {
		return apierrors.Store("leave team", err)
	}
	return nil
}

// GetTeam returns the team to its manager and members.
func (s *TeamService) GetTeam(actorID, teamID string) (*models.Team, error) {
	return s.access.teamOf(actorID, teamID)
}

// Members lists everyone attached to the team, manager included.
func (s *TeamService) Members(actorID, teamID string) ([]models.User, error) {
	team, err := s.access.teamOf(actorID, teamID)
	if err != nil {
		return nil, err
	}
	return s.members(team, RollupViewMembers)
}

// Employees lists the team's members without its manager.
func (s *TeamService) Employees(actorID, teamID string) ([]models.User, error) {
	team, err := s.access.teamOf(actorID, teamID)
	if err != nil {
		return nil, err
	}
	return s.members(team, RollupViewEmployees)
}

func (s *TeamService) members(team *models.Team, view RollupView) ([]models.User, error) {
	users, err := s.userRepo.ListByTeam(team.ID)
	if err != nil {
		return nil, apierrors.Store("list team members", err)
	}
	if view == RollupViewMembers {
		return users, nil
	}

	employees := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != team.ManagerID {
			employees = append(employees, u)
		}
	}
	return employees, nil
}

func (s *TeamService) managedTeam(actorID, teamID string) (*models.Team, error) {
	team, err := s.access.teamOf(actorID, teamID)
	if err != nil {
		return nil, err
	}
	if team.ManagerID != actorID {
		return nil, ErrNotTeamManager
	}
	return team, nil
}

// RegenerateInviteCode replaces the team's invite code.
func (s *TeamService) RegenerateInviteCode(actorID, teamID string) (*models.Team, error) {
	team, err := s.managedTeam(actorID, teamID)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueInviteCode()
	if err != nil {
		return nil, err
	}
	team.InviteCode = code
	if err := s.teamRepo.Update(team); err != nil {
		return nil, apierrors.Store("update invite code", err)
	}
	return team, nil
}

// RemoveMember detaches targetID from the team.
func (s *TeamService) RemoveMember(actorID, teamID, targetID string) error {
	team, err := s.managedTeam(actorID, teamID)
	if err != nil {
		return err
	}
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	target, err := s.access.findUser(targetID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrTeamMemberNotFound
		}
		return err
	}
	if target.TeamID == nil || *target.TeamID != team.ID {
		return ErrTeamMemberNotFound
	}

	if err := s.userRepo.SetTeam(targetID, nil); err != nil {
		return apierrors.Store("remove member", err)
	}
	return nil
}

// RollupView selects who appears in a roll-up.
type RollupView string

const (
	RollupViewMembers   RollupView = "members"
	RollupViewEmployees RollupView = "employees"
)

// RollupInput selects the month whose records are listed per member.
type RollupInput struct {
	Year  int
	Month int
	View  RollupView
}

// MemberRollup is one member's slice of a team roll-up.
type MemberRollup struct {
	User         models.User
	TodayMinutes int
	WeekMinutes  int
	MonthMinutes int
	Selected     worktime.Summary
	Records      []models.TimeRecord
	OpenRecord   *models.TimeRecord
	LiveMinutes  int
}

// RollupTotals are pointwise sums over members.
type RollupTotals struct {
	TodayMinutes        int
	WeekMinutes         int
	MonthMinutes        int
	SelectedMinutes     int
	SelectedEarnings    float64
	SelectedOvertime    int
	SelectedRecordCount int
	CurrentlyWorking    int
}

type TeamRollup struct {
	Team    models.Team
	Year    int
	Month   int
	View    RollupView
	Members []MemberRollup
	Totals  RollupTotals
}

// Rollup aggregates every member's hours for the manager. Members are
// computed concurrently; each goroutine writes only its own slot.
func (s *TeamService) Rollup(ctx context.Context, actorID, teamID string, input RollupInput) (*TeamRollup, error) {
	now := s.now()
	if input.View == "" {
		input.View = RollupViewMembers
	}
	if input.View != RollupViewMembers && input.View != RollupViewEmployees {
		return nil, ErrInvalidRollupView
	}
	if input.Year == 0 || input.Month == 0 {
		local := now.In(s.loc)
		input.Year, input.Month = local.Year(), int(local.Month())
	}
	if input.Month < 1 || input.Month > 12 {
		return nil, ErrInvalidMonth
	}

	team, err := s.managedTeam(actorID, teamID)
	if err != nil {
		return nil, err
	}
	users, err := s.members(team, input.View)
	if err != nil {
		return nil, err
	}

	windows := worktime.WindowsAt(now, s.loc)
	selected := worktime.MonthRange(input.Year, time.Month(input.Month), s.loc)

	results := make([]MemberRollup, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i := range users {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.memberRollup(users[i], now, windows, selected)
			if err != nil {
				return err
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rollup := &TeamRollup{
		Team:    *team,
		Year:    input.Year,
		Month:   input.Month,
		View:    input.View,
		Members: results,
	}
	for _, m := range results {
		rollup.Totals.TodayMinutes += m.TodayMinutes
		rollup.Totals.WeekMinutes += m.WeekMinutes
		rollup.Totals.MonthMinutes += m.MonthMinutes
		rollup.Totals.SelectedMinutes += m.Selected.TotalMinutes
		rollup.Totals.SelectedEarnings += m.Selected.TotalEarnings
		rollup.Totals.SelectedOvertime += m.Selected.OvertimeMinutes
		rollup.Totals.SelectedRecordCount += m.Selected.RecordCount
		if m.OpenRecord != nil {
			rollup.Totals.CurrentlyWorking++
		}
	}
	return rollup, nil
}

func (s *TeamService) memberRollup(user models.User, now time.Time, windows worktime.Windows, selected worktime.Range) (*MemberRollup, error) {
	jobs, err := s.jobRepo.ListByUser(user.ID, true)
	if err != nil {
		return nil, apierrors.Store("list member jobs", err)
	}
	opts := worktime.Options{
		RateByJob:      rateTable(jobs),
		DailyHourLimit: s.defaultLimit,
		Location:       s.loc,
	}

	currentStart := windows.Week.Start
	if windows.Month.Start.Before(currentStart) {
		currentStart = windows.Month.Start
	}
	currentEnd := windows.Week.End
	if windows.Month.End.After(currentEnd) {
		currentEnd = windows.Month.End
	}
	current, err := s.closedRecords(user.ID, worktime.Range{Start: currentStart, End: currentEnd})
	if err != nil {
		return nil, err
	}
	monthRecords, err := s.closedRecords(user.ID, selected)
	if err != nil {
		return nil, err
	}

	r := &MemberRollup{
		User:         user,
		TodayMinutes: worktime.Summarize(current, opts, windows.Today).TotalMinutes,
		WeekMinutes:  worktime.Summarize(current, opts, windows.Week).TotalMinutes,
		MonthMinutes: worktime.Summarize(current, opts, windows.Month).TotalMinutes,
		Selected:     worktime.Summarize(monthRecords, opts, selected),
		Records:      monthRecords,
	}

	open, err := s.recordRepo.FindOpenByUser(user.ID)
	switch {
	case err == nil:
		r.OpenRecord = open
		r.LiveMinutes = worktime.LiveMinutes(open, now)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apierrors.Store("find open record", err)
	}
	return r, nil
}

// closedRecords loads a user's closed records whose business date lies in rng,
// newest first.
func (s *TeamService) closedRecords(userID string, rng worktime.Range) ([]models.TimeRecord, error) {
	records, _, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:    []string{userID},
		StartDate:  timezone.DateOf(rng.Start, s.loc),
		EndDate:    timezone.DateOf(rng.End.AddDate(0, 0, -1), s.loc),
		OnlyClosed: true,
	})
	if err != nil {
		return nil, apierrors.Store("list member records", err)
	}
	return records, nil
}

func rateTable(jobs []models.Job) map[string]float64 {
	rates := make(map[string]float64, len(jobs))
	for _, j := range jobs {
		rates[j.ID] = j.HourlyRate
	}
	return rates
}
