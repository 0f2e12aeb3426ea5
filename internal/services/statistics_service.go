package services

import (
	"context"
	"time"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/timezone"
	"github.com/yukikurage/timecard-api/internal/utils"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

// StatisticsService exposes the aggregator over stored records.
type StatisticsService struct {
	recordRepo   repository.TimeRecordRepository
	jobRepo      repository.JobRepository
	access       accessChecker
	now          Clock
	loc          *time.Location
	defaultLimit float64
}

func NewStatisticsService(
	recordRepo repository.TimeRecordRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	loc *time.Location,
	defaultLimit float64,
) *StatisticsService {
	return &StatisticsService{
		recordRepo:   recordRepo,
		jobRepo:      jobRepo,
		access:       accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		now:          systemClock,
		loc:          loc,
		defaultLimit: defaultLimit,
	}
}

// StatsInput selects whose statistics to compute, optionally for one job.
type StatsInput struct {
	UserID string
	JobID  string
}

// StatsResult is the dashboard payload.
type StatsResult struct {
	worktime.Statistics
	Status *ClockStatus
}

// options builds aggregation options. With a job filter the job's own rate and
// daily limit apply; otherwise each record uses its job's rate and the
// configured default limit.
func (s *StatisticsService) options(userID, jobID string) (worktime.Options, error) {
	jobs, err := s.jobRepo.ListByUser(userID, true)
	if err != nil {
		return worktime.Options{}, apierrors.Store("list jobs", err)
	}

	opts := worktime.Options{
		RateByJob:      rateTable(jobs),
		DailyHourLimit: s.defaultLimit,
		Location:       s.loc,
	}
	if jobID == "" {
		return opts, nil
	}
	for _, j := range jobs {
		if j.ID == jobID {
			opts.HourlyRate = j.HourlyRate
			opts.DailyHourLimit = j.DailyHourLimit
			return opts, nil
		}
	}
	return worktime.Options{}, ErrJobNotFound
}

func (s *StatisticsService) resolveUser(actorID, userID string) (string, error) {
	if userID == "" {
		userID = actorID
	}
	if err := s.access.canView(actorID, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// GetStatistics computes today, week and month summaries relative to now.
func (s *StatisticsService) GetStatistics(_ context.Context, actorID string, input StatsInput) (*StatsResult, error) {
	userID, err := s.resolveUser(actorID, input.UserID)
	if err != nil {
		return nil, err
	}
	opts, err := s.options(userID, input.JobID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	w := worktime.WindowsAt(now, s.loc)
	start := w.Week.Start
	if w.Month.Start.Before(start) {
		start = w.Month.Start
	}
	end := w.Week.End
	if w.Month.End.After(end) {
		end = w.Month.End
	}

	records, _, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:    []string{userID},
		JobID:      input.JobID,
		StartDate:  timezone.DateOf(start, s.loc),
		EndDate:    timezone.DateOf(end.AddDate(0, 0, -1), s.loc),
		OnlyClosed: true,
	})
	if err != nil {
		return nil, apierrors.Store("list time records", err)
	}

	stats := worktime.Compute(records, opts, now)

	// All-time count of closed records; only the total is needed.
	_, total, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:    []string{userID},
		JobID:      input.JobID,
		OnlyClosed: true,
		Pagination: utils.PaginationParams{Page: 1, Limit: 1},
	})
	if err != nil {
		return nil, apierrors.Store("count time records", err)
	}
	stats.TotalRecords = int(total)

	result := &StatsResult{Statistics: stats, Status: &ClockStatus{State: ClockStateIdle}}
	open, err := s.recordRepo.FindOpenByUser(userID)
	if err == nil {
		result.Status = &ClockStatus{
			State:       ClockStateWorking,
			Record:      open,
			LiveMinutes: worktime.LiveMinutes(open, now),
		}
	} else if !isNotFound(err) {
		return nil, apierrors.Store("find open record", err)
	}
	return result, nil
}

// MonthlyInput selects a calendar month. Zero year or month means the current one.
type MonthlyInput struct {
	UserID string
	JobID  string
	Year   int
	Month  int
}

// MonthlyResult is the history view of one month.
type MonthlyResult struct {
	Year    int
	Month   int
	Summary worktime.Summary
	Days    []worktime.DaySummary
	Records []models.TimeRecord
}

func (s *StatisticsService) Monthly(_ context.Context, actorID string, input MonthlyInput) (*MonthlyResult, error) {
	if input.Year == 0 || input.Month == 0 {
		local := s.now().In(s.loc)
		input.Year, input.Month = local.Year(), int(local.Month())
	}
	if input.Month < 1 || input.Month > 12 {
		return nil, ErrInvalidMonth
	}

	userID, err := s.resolveUser(actorID, input.UserID)
	if err != nil {
		return nil, err
	}
	opts, err := s.options(userID, input.JobID)
	if err != nil {
		return nil, err
	}

	month := worktime.MonthRange(input.Year, time.Month(input.Month), s.loc)
	records, _, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:    []string{userID},
		JobID:      input.JobID,
		StartDate:  timezone.DateOf(month.Start, s.loc),
		EndDate:    timezone.DateOf(month.End.AddDate(0, 0, -1), s.loc),
		OnlyClosed: true,
	})
	if err != nil {
		return nil, apierrors.Store("list time records", err)
	}

	return &MonthlyResult{
		Year:    input.Year,
		Month:   input.Month,
		Summary: worktime.MonthSummary(records, opts, input.Year, time.Month(input.Month)),
		Days:    worktime.DailyBreakdown(records, opts, month),
		Records: records,
	}, nil
}
