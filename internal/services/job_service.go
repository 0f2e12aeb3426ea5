package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/constants"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/utils"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

var (
	ErrJobNotFound       = apierrors.NotFound("job not found")
	ErrJobNameRequired   = apierrors.Validation("job name is required")
	ErrInvalidHourlyRate = apierrors.Validation("hourly rate must be a positive number")
	ErrInvalidDailyLimit = apierrors.Validation("daily hour limit must be between 0 and 24")
	ErrInvalidJobColor   = apierrors.Validation("color must look like #RRGGBB")
	ErrJobLimitReached   = apierrors.Forbidden(fmt.Sprintf("free accounts can keep %d active job; upgrade to add more", constants.FreeActiveJobLimit))
	ErrJobAlreadyActive  = apierrors.Conflict("job is already active")
	ErrJobAlreadyRetired = apierrors.Conflict("job is already retired")
)

// JobService manages a user's jobs and their lifecycle.
type JobService struct {
	jobRepo  repository.JobRepository
	userRepo repository.UserRepository
	now      Clock
}

func NewJobService(jobRepo repository.JobRepository, userRepo repository.UserRepository) *JobService {
	return &JobService{jobRepo: jobRepo, userRepo: userRepo, now: systemClock}
}

func (s *JobService) ListJobs(userID string, includeRetired bool) ([]models.Job, error) {
	jobs, err := s.jobRepo.ListByUser(userID, includeRetired)
	if err != nil {
		return nil, apierrors.Store("list jobs", err)
	}
	return jobs, nil
}

// GetJob returns the job if userID owns it. Jobs of other users are reported
// as missing.
func (s *JobService) GetJob(userID, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, apierrors.Store("find job", err)
	}
	if job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

type CreateJobInput struct {
	Name           string
	HourlyRate     float64
	DailyHourLimit *float64
	Color          string
}

func (s *JobService) CreateJob(userID string, input CreateJobInput) (*models.Job, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrJobNameRequired
	}
	if len([]rune(name)) > constants.MaxNameLength {
		return nil, ErrNameTooLong
	}
	if !worktime.ValidRate(input.HourlyRate) {
		return nil, ErrInvalidHourlyRate
	}
	limit := constants.DefaultDailyHourLimit
	if input.DailyHourLimit != nil {
		if !validDailyLimit(*input.DailyHourLimit) {
			return nil, ErrInvalidDailyLimit
		}
		limit = *input.DailyHourLimit
	}
	color := input.Color
	if color == "" {
		color = utils.RandomJobColor()
	} else if !utils.IsHexColor(color) {
		return nil, ErrInvalidJobColor
	}

	if err := s.checkActiveLimit(userID); err != nil {
		return nil, err
	}

	job := &models.Job{
		UserID:         userID,
		Name:           name,
		HourlyRate:     input.HourlyRate,
		DailyHourLimit: limit,
		Status:         models.JobStatusActive,
		Color:          strings.ToUpper(color),
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, apierrors.Store("create job", err)
	}
	return job, nil
}

// checkActiveLimit enforces the free-plan cap on active jobs.
func (s *JobService) checkActiveLimit(userID string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return apierrors.Store("find user", err)
	}
	if user.HasPremium(s.now()) {
		return nil
	}

	active, err := s.jobRepo.CountActive(userID)
	if err != nil {
		return apierrors.Store("count active jobs", err)
	}
	if active >= constants.FreeActiveJobLimit {
		return ErrJobLimitReached
	}
	return nil
}

// UpdateJobInput lists the mutable job fields. Nil leaves a field unchanged.
type UpdateJobInput struct {
	Name           *string
	HourlyRate     *float64
	DailyHourLimit *float64
	Color          *string
}

func (s *JobService) UpdateJob(userID, jobID string, input UpdateJobInput) (*models.Job, error) {
	if _, err := s.GetJob(userID, jobID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrJobNameRequired
		}
		if len([]rune(name)) > constants.MaxNameLength {
			return nil, ErrNameTooLong
		}
		updates["name"] = name
	}
	if input.HourlyRate != nil {
		if !worktime.ValidRate(*input.HourlyRate) {
			return nil, ErrInvalidHourlyRate
		}
		updates["hourly_rate"] = *input.HourlyRate
	}
	if input.DailyHourLimit != nil {
		if !validDailyLimit(*input.DailyHourLimit) {
			return nil, ErrInvalidDailyLimit
		}
		updates["daily_hour_limit"] = *input.DailyHourLimit
	}
	if input.Color != nil {
		if !utils.IsHexColor(*input.Color) {
			return nil, ErrInvalidJobColor
		}
		updates["color"] = strings.ToUpper(*input.Color)
	}
	if len(updates) == 0 {
		return nil, ErrNothingToApply
	}

	if err := s.jobRepo.Update(jobID, updates); err != nil {
		return nil, apierrors.Store("update job", err)
	}
	return s.GetJob(userID, jobID)
}

// RetireJob hides the job from pickers. Its records keep resolving it.
func (s *JobService) RetireJob(userID, jobID string) (*models.Job, error) {
	job, err := s.GetJob(userID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive() {
		return nil, ErrJobAlreadyRetired
	}
	return s.setStatus(userID, jobID, models.JobStatusRetired)
}

func (s *JobService) RestoreJob(userID, jobID string) (*models.Job, error) {
	job, err := s.GetJob(userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsActive() {
		return nil, ErrJobAlreadyActive
	}
	if err := s.checkActiveLimit(userID); err != nil {
		return nil, err
	}
	return s.setStatus(userID, jobID, models.JobStatusActive)
}

func (s *JobService) setStatus(userID, jobID string, status models.JobStatus) (*models.Job, error) {
	if err := s.jobRepo.Update(jobID, map[string]interface{}{"status": status}); err != nil {
		return nil, apierrors.Store("update job status", err)
	}
	return s.GetJob(userID, jobID)
}

func validDailyLimit(limit float64) bool {
	return limit > 0 && limit <= 24
}
