package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/timecard-api/internal/database"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/utils"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateModels(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func strPtr(s string) *string { return &s }

func TestUserRepository_DeleteCascadeClearsTeamMembers(t *testing.T) {
	db := setupRepositoryTestDB(t)
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)

	manager := &models.User{Email: "boss@example.com", Name: "Boss", Role: models.RoleManager}
	member := &models.User{Email: "worker@example.com", Name: "Worker"}
	require.NoError(t, users.Create(manager))
	require.NoError(t, users.Create(member))

	team := &models.Team{Name: "Cafe", ManagerID: manager.ID, InviteCode: "ABC123"}
	require.NoError(t, teams.CreateWithManager(team))
	require.NoError(t, users.SetTeam(member.ID, &team.ID))

	job := &models.Job{UserID: manager.ID, Name: "Shift lead", HourlyRate: 200, Status: models.JobStatusActive}
	require.NoError(t, db.Create(job).Error)
	out := time.Now()
	require.NoError(t, db.Create(&models.TimeRecord{UserID: manager.ID, JobID: job.ID, ClockIn: out.Add(-time.Hour), ClockOut: &out, Date: "2025-03-01"}).Error)
	require.NoError(t, db.Create(&models.Schedule{UserID: manager.ID, Mode: models.ScheduleModeDate, Date: strPtr("2025-03-02"), StartTime: "09:00", EndTime: "17:00", CreatedBy: manager.ID}).Error)

	summary, err := users.DeleteCascade(manager.ID)
	require.NoError(t, err)
	require.True(t, summary.TeamDeleted)
	require.EqualValues(t, 2, summary.MembersCleared)
	require.EqualValues(t, 1, summary.Jobs)
	require.EqualValues(t, 1, summary.Records)
	require.EqualValues(t, 1, summary.Schedules)

	reloaded, err := users.FindByID(member.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.TeamID)

	_, err = teams.FindByID(team.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = users.FindByID(manager.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DeleteCascadeUnknownUser(t *testing.T) {
	db := setupRepositoryTestDB(t)
	_, err := NewUserRepository(db).DeleteCascade("missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTeamRepository_InviteCodeIgnoresCase(t *testing.T) {
	db := setupRepositoryTestDB(t)
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)

	manager := &models.User{Email: "m@example.com", Name: "M", Role: models.RoleManager}
	require.NoError(t, users.Create(manager))
	require.NoError(t, teams.CreateWithManager(&models.Team{Name: "T", ManagerID: manager.ID, InviteCode: "XY12ZQ"}))

	found, err := teams.FindByInviteCode("xy12zq")
	require.NoError(t, err)
	require.Equal(t, manager.ID, found.ManagerID)

	exists, err := teams.InviteCodeExists("Xy12Zq")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestTimeRecordRepository_ListFilters(t *testing.T) {
	db := setupRepositoryTestDB(t)
	records := NewTimeRecordRepository(db)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		in := base.AddDate(0, 0, i)
		out := in.Add(4 * time.Hour)
		jobID := "job-a"
		if i%2 == 1 {
			jobID = "job-b"
		}
		require.NoError(t, records.Create(&models.TimeRecord{
			UserID: "u1", JobID: jobID, ClockIn: in, ClockOut: &out, Date: in.Format("2006-01-02"),
		}))
	}
	require.NoError(t, records.Create(&models.TimeRecord{UserID: "u2", JobID: "job-a", ClockIn: base, Date: "2025-03-01"}))

	list, total, err := records.List(RecordFilter{UserIDs: []string{"u1"}, StartDate: "2025-03-02", EndDate: "2025-03-04"})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, "2025-03-04", list[0].Date)

	list, _, err = records.List(RecordFilter{UserIDs: []string{"u1"}, JobID: "job-b", Ascending: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "2025-03-02", list[0].Date)

	list, total, err = records.List(RecordFilter{UserIDs: []string{"u1"}, Pagination: utils.PaginationParams{Page: 2, Limit: 2, Offset: 2}})
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, list, 2)

	list, _, err = records.List(RecordFilter{UserIDs: []string{"u1", "u2"}, OnlyClosed: true})
	require.NoError(t, err)
	require.Len(t, list, 5)

	open, err := records.FindOpenByUser("u2")
	require.NoError(t, err)
	require.Nil(t, open.ClockOut)

	_, err = records.FindOpenByUser("u1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestScheduleRepository_ListKeepsWeeklyEntries(t *testing.T) {
	db := setupRepositoryTestDB(t)
	schedules := NewScheduleRepository(db)

	weekday := 1
	require.NoError(t, schedules.Create(&models.Schedule{UserID: "u1", Mode: models.ScheduleModeDate, Date: strPtr("2025-03-10"), StartTime: "09:00", EndTime: "12:00", CreatedBy: "u1"}))
	require.NoError(t, schedules.Create(&models.Schedule{UserID: "u1", Mode: models.ScheduleModeDate, Date: strPtr("2025-04-10"), StartTime: "09:00", EndTime: "12:00", CreatedBy: "u1"}))
	require.NoError(t, schedules.Create(&models.Schedule{UserID: "u1", Mode: models.ScheduleModeWeekly, Weekday: &weekday, StartTime: "18:00", EndTime: "21:00", CreatedBy: "u1"}))
	require.NoError(t, schedules.Create(&models.Schedule{UserID: "u2", Mode: models.ScheduleModeDate, Date: strPtr("2025-03-11"), StartTime: "09:00", EndTime: "12:00", CreatedBy: "u2"}))

	list, err := schedules.List(ScheduleFilter{UserIDs: []string{"u1"}, FromDate: "2025-03-01", ToDate: "2025-03-31"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, models.ScheduleModeDate, list[0].Mode)
	require.Equal(t, models.ScheduleModeWeekly, list[1].Mode)

	require.ErrorIs(t, schedules.Delete("missing"), gorm.ErrRecordNotFound)
}

func TestTimeRecordRepository_PropagatesStoreErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	records := NewTimeRecordRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `time_records`").
		WillReturnError(errors.New("connection refused"))

	_, err := records.FindOpenByUser("u1")
	require.ErrorContains(t, err, "connection refused")
	require.False(t, errors.Is(err, gorm.ErrRecordNotFound))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `time_records`").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = records.Create(&models.TimeRecord{UserID: "u1", JobID: "j1", ClockIn: time.Now(), Date: "2025-03-01"})
	require.ErrorContains(t, err, "disk full")

	require.NoError(t, mock.ExpectationsWereMet())
}
