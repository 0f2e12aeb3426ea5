package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/timecard-api/internal/constants"
	"github.com/yukikurage/timecard-api/internal/database"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/services"
)

const testDailyLimit = 8

type handlerTestEnv struct {
	db          *gorm.DB
	authService *services.AuthService
	jobService  *services.JobService
	auth        *AuthHandler
	users       *UserHandler
	teams       *TeamHandler
	jobs        *JobHandler
	records     *RecordHandler
	stats       *StatsHandler
	schedules   *ScheduleHandler
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.MigrateModels(db))
	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	jobRepo := repository.NewJobRepository(db)
	recordRepo := repository.NewTimeRecordRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	authService := services.NewAuthService(userRepo, "test-secret", time.Hour)
	jobService := services.NewJobService(jobRepo, userRepo)
	recordService := services.NewRecordService(recordRepo, jobRepo, userRepo, teamRepo, lock.NewLocalLocker(), nil, time.UTC)
	exportService := services.NewExportService(recordRepo, jobRepo, userRepo, teamRepo, time.UTC, testDailyLimit)

	return &handlerTestEnv{
		db:          db,
		authService: authService,
		jobService:  jobService,
		auth:        NewAuthHandler(authService),
		users:       NewUserHandler(services.NewUserService(userRepo, teamRepo)),
		teams:       NewTeamHandler(services.NewTeamService(teamRepo, userRepo, jobRepo, recordRepo, time.UTC, testDailyLimit)),
		jobs:        NewJobHandler(jobService),
		records:     NewRecordHandler(recordService, exportService),
		stats:       NewStatsHandler(services.NewStatisticsService(recordRepo, jobRepo, userRepo, teamRepo, time.UTC, testDailyLimit)),
		schedules:   NewScheduleHandler(services.NewScheduleService(scheduleRepo, jobRepo, userRepo, teamRepo, nil, time.UTC)),
	}
}

func (env *handlerTestEnv) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user, err := env.authService.Register(services.RegisterInput{
		Email:    email,
		Password: "supersecret",
		Name:     "Test User",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (env *handlerTestEnv) createJob(t *testing.T, userID string) *models.Job {
	t.Helper()
	job, err := env.jobService.CreateJob(userID, services.CreateJobInput{
		Name:       "Cafe",
		HourlyRate: 1000,
	})
	require.NoError(t, err)
	return job
}

// authContext builds a gin context as if RequireAuth had already run.
func authContext(method, url string, body []byte, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if body != nil {
		c.Request = httptest.NewRequest(method, url, bytes.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, url, nil)
	}
	if userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}
	return c, w
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return body
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}
