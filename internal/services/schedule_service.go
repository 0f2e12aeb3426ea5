package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

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
	ErrScheduleNotFound       = apierrors.NotFound("schedule not found")
	ErrInvalidScheduleMode    = apierrors.Validation("mode must be date or weekly")
	ErrScheduleDateRequired   = apierrors.Validation("date is required for date schedules")
	ErrInvalidWeekday         = apierrors.Validation("weekday must be between 0 (Sunday) and 6")
	ErrScheduleTextRequired   = apierrors.Validation("text is required")
	ErrAIServiceNotConfigured = apierrors.Unavailable("schedule assistant is not configured")
	ErrAINoSchedulesGenerated = apierrors.Validation("no shifts could be read from the text")
)

// ScheduleService manages planned shifts.
type ScheduleService struct {
	scheduleRepo repository.ScheduleRepository
	jobRepo      repository.JobRepository
	access       accessChecker
	ai           *AIService
	now          Clock
	loc          *time.Location
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	ai *AIService,
	loc *time.Location,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		jobRepo:      jobRepo,
		access:       accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		ai:           ai,
		now:          systemClock,
		loc:          loc,
	}
}

func (s *ScheduleService) monthFilter(userIDs []string, year, month int) (repository.ScheduleFilter, error) {
	filter := repository.ScheduleFilter{UserIDs: userIDs}
	if year == 0 && month == 0 {
		return filter, nil
	}
	if month < 1 || month > 12 || year == 0 {
		return filter, ErrInvalidMonth
	}
	rng := worktime.MonthRange(year, time.Month(month), s.loc)
	filter.FromDate = timezone.DateOf(rng.Start, s.loc)
	filter.ToDate = timezone.DateOf(rng.End.AddDate(0, 0, -1), s.loc)
	return filter, nil
}

// List returns the actor's own schedules, optionally for one month.
func (s *ScheduleService) List(actorID string, year, month int) ([]models.Schedule, error) {
	filter, err := s.monthFilter([]string{actorID}, year, month)
	if err != nil {
		return nil, err
	}
	schedules, err := s.scheduleRepo.List(filter)
	if err != nil {
		return nil, apierrors.Store("list schedules", err)
	}
	return schedules, nil
}

// ListTeam returns the schedules of every member of the team.
func (s *ScheduleService) ListTeam(actorID, teamID string, year, month int) ([]models.Schedule, error) {
	team, err := s.access.teamOf(actorID, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.access.userRepo.ListByTeam(team.ID)
	if err != nil {
		return nil, apierrors.Store("list team members", err)
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	filter, err := s.monthFilter(ids, year, month)
	if err != nil {
		return nil, err
	}
	schedules, err := s.scheduleRepo.List(filter)
	if err != nil {
		return nil, apierrors.Store("list schedules", err)
	}
	return schedules, nil
}

type CreateScheduleInput struct {
	UserID    string
	JobID     *string
	Mode      models.ScheduleMode
	Date      *string
	Weekday   *int
	StartTime string
	EndTime   string
	Note      string
}

// Create adds a schedule for the actor, or for a member of the actor's team.
func (s *ScheduleService) Create(actorID string, input CreateScheduleInput) (*models.Schedule, error) {
	userID := input.UserID
	if userID == "" {
		userID = actorID
	}
	if err := s.access.canView(actorID, userID); err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		UserID:    userID,
		JobID:     input.JobID,
		Mode:      input.Mode,
		Date:      input.Date,
		Weekday:   input.Weekday,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Note:      strings.TrimSpace(input.Note),
		CreatedBy: actorID,
	}
	if schedule.Mode == "" {
		schedule.Mode = models.ScheduleModeDate
	}
	if err := s.validate(schedule); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(schedule); err != nil {
		return nil, apierrors.Store("create schedule", err)
	}
	return schedule, nil
}

// validate normalizes mode-specific fields and checks the time range.
func (s *ScheduleService) validate(schedule *models.Schedule) error {
	switch schedule.Mode {
	case models.ScheduleModeDate:
		if schedule.Date == nil || *schedule.Date == "" {
			return ErrScheduleDateRequired
		}
		if _, err := timezone.ParseDate(*schedule.Date, s.loc); err != nil {
			return ErrInvalidDate
		}
		schedule.Weekday = nil
	case models.ScheduleModeWeekly:
		if schedule.Weekday == nil || *schedule.Weekday < 0 || *schedule.Weekday > 6 {
			return ErrInvalidWeekday
		}
		schedule.Date = nil
	default:
		return ErrInvalidScheduleMode
	}

	if err := utils.ValidTimeRange(schedule.StartTime, schedule.EndTime); err != nil {
		return apierrors.Validation(err.Error())
	}
	if len([]rune(schedule.Note)) > constants.MaxNoteLength {
		return ErrNoteTooLong
	}

	if schedule.JobID != nil && *schedule.JobID != "" {
		job, err := s.jobRepo.FindByID(*schedule.JobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return apierrors.Store("find job", err)
		}
		if job.UserID != schedule.UserID {
			return ErrJobNotFound
		}
	} else {
		schedule.JobID = nil
	}
	return nil
}

type UpdateScheduleInput struct {
	JobID     *string
	Mode      *models.ScheduleMode
	Date      *string
	Weekday   *int
	StartTime *string
	EndTime   *string
	Note      *string
}

func (s *ScheduleService) Update(actorID, scheduleID string, input UpdateScheduleInput) (*models.Schedule, error) {
	schedule, err := s.find(actorID, scheduleID)
	if err != nil {
		return nil, err
	}

	if input.JobID != nil {
		schedule.JobID = input.JobID
	}
	if input.Mode != nil {
		schedule.Mode = *input.Mode
	}
	if input.Date != nil {
		schedule.Date = input.Date
	}
	if input.Weekday != nil {
		schedule.Weekday = input.Weekday
	}
	if input.StartTime != nil {
		schedule.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		schedule.EndTime = *input.EndTime
	}
	if input.Note != nil {
		schedule.Note = strings.TrimSpace(*input.Note)
	}
	if err := s.validate(schedule); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, apierrors.Store("update schedule", err)
	}
	return schedule, nil
}

func (s *ScheduleService) Delete(actorID, scheduleID string) error {
	if _, err := s.find(actorID, scheduleID); err != nil {
		return err
	}
	if err := s.scheduleRepo.Delete(scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return apierrors.Store("delete schedule", err)
	}
	return nil
}

// find loads a schedule the actor owns or manages.
func (s *ScheduleService) find(actorID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, apierrors.Store("find schedule", err)
	}
	if err := s.access.canView(actorID, schedule.UserID); err != nil {
		if errors.Is(err, ErrNotTeamScope) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

type GenerateSchedulesInput struct {
	Text   string
	UserID string
	JobID  *string
	// Save persists the drafts; otherwise they are only returned.
	Save bool
}

// Generate asks the assistant for dated shifts. Drafts that fail validation
// are dropped.
func (s *ScheduleService) Generate(ctx context.Context, actorID string, input GenerateSchedulesInput) ([]models.Schedule, error) {
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrScheduleTextRequired
	}
	userID := input.UserID
	if userID == "" {
		userID = actorID
	}
	if err := s.access.canView(actorID, userID); err != nil {
		return nil, err
	}

	drafts, err := s.ai.GenerateSchedulesFromText(ctx, text, s.now(), s.loc)
	if err != nil {
		slog.Error("schedule assistant failed", "user_id", actorID, "error", err)
		return nil, ErrAIServiceNotConfigured
	}
	if len(drafts) > constants.MaxAIGeneratedSchedules {
		drafts = drafts[:constants.MaxAIGeneratedSchedules]
	}

	schedules := make([]models.Schedule, 0, len(drafts))
	for _, d := range drafts {
		date := d.Date
		schedule := models.Schedule{
			UserID:    userID,
			JobID:     input.JobID,
			Mode:      models.ScheduleModeDate,
			Date:      &date,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Note:      strings.TrimSpace(d.Note),
			CreatedBy: actorID,
		}
		if err := s.validate(&schedule); err != nil {
			if apierrors.IsStore(err) {
				return nil, err
			}
			slog.Debug("dropping generated schedule", "date", d.Date, "error", err)
			continue
		}
		schedules = append(schedules, schedule)
	}
	if len(schedules) == 0 {
		return nil, ErrAINoSchedulesGenerated
	}

	if input.Save {
		for i := range schedules {
			if err := s.scheduleRepo.Create(&schedules[i]); err != nil {
				return nil, apierrors.Store("create schedule", err)
			}
		}
	}
	return schedules, nil
}
