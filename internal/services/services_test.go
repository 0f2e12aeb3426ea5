package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/timecard-api/internal/database"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
)

type serviceTestEnv struct {
	db         *gorm.DB
	now        time.Time
	users      repository.UserRepository
	teams      repository.TeamRepository
	jobs       repository.JobRepository
	records    repository.TimeRecordRepository
	schedules  repository.ScheduleRepository
	auth       *AuthService
	userSvc    *UserService
	teamSvc    *TeamService
	jobSvc     *JobService
	recordSvc  *RecordService
	statsSvc   *StatisticsService
	schedSvc   *ScheduleService
	exportSvc  *ExportService
	locker     *lock.LocalLocker
	fixedClock Clock
}

// setupServiceTestEnv wires every service against an in-memory database with
// the clock pinned to Wednesday 2025-03-05 12:00 UTC.
func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateModels(db))

	env := &serviceTestEnv{
		db:        db,
		now:       time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
		users:     repository.NewUserRepository(db),
		teams:     repository.NewTeamRepository(db),
		jobs:      repository.NewJobRepository(db),
		records:   repository.NewTimeRecordRepository(db),
		schedules: repository.NewScheduleRepository(db),
		locker:    lock.NewLocalLocker(),
	}
	env.fixedClock = func() time.Time { return env.now }

	env.auth = NewAuthService(env.users, "test-secret", time.Hour)
	env.auth.now = env.fixedClock
	env.userSvc = NewUserService(env.users, env.teams)
	env.teamSvc = NewTeamService(env.teams, env.users, env.jobs, env.records, time.UTC, 8)
	env.teamSvc.now = env.fixedClock
	env.jobSvc = NewJobService(env.jobs, env.users)
	env.jobSvc.now = env.fixedClock
	env.recordSvc = NewRecordService(env.records, env.jobs, env.users, env.teams, env.locker, nil, time.UTC)
	env.recordSvc.now = env.fixedClock
	env.statsSvc = NewStatisticsService(env.records, env.jobs, env.users, env.teams, time.UTC, 8)
	env.statsSvc.now = env.fixedClock
	env.schedSvc = NewScheduleService(env.schedules, env.jobs, env.users, env.teams, nil, time.UTC)
	env.schedSvc.now = env.fixedClock
	env.exportSvc = NewExportService(env.records, env.jobs, env.users, env.teams, time.UTC, 8)
	env.exportSvc.now = env.fixedClock

	return env
}

func (env *serviceTestEnv) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: email, PasswordHash: "hashed", Role: role}
	require.NoError(t, env.users.Create(user))
	return user
}

func (env *serviceTestEnv) createJob(t *testing.T, userID string, rate float64) *models.Job {
	t.Helper()
	job := &models.Job{UserID: userID, Name: "Cafe", HourlyRate: rate, DailyHourLimit: 8, Status: models.JobStatusActive}
	require.NoError(t, env.jobs.Create(job))
	return job
}

// createClosedRecord stores a finished shift directly, bypassing the clock.
func (env *serviceTestEnv) createClosedRecord(t *testing.T, userID, jobID string, in time.Time, d time.Duration) *models.TimeRecord {
	t.Helper()
	out := in.Add(d)
	record := &models.TimeRecord{
		UserID:   userID,
		JobID:    jobID,
		ClockIn:  in,
		ClockOut: &out,
		Date:     in.UTC().Format("2006-01-02"),
	}
	require.NoError(t, env.records.Create(record))
	return record
}

func (env *serviceTestEnv) countOpen(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.TimeRecord{}).
		Where("user_id = ? AND clock_out IS NULL", userID).
		Count(&n).Error)
	return n
}

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(v time.Time) *time.Time { return &v }
