package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/timecard-api/internal/config"
	"github.com/yukikurage/timecard-api/internal/database"
	"github.com/yukikurage/timecard-api/internal/dto"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/ratelimit"
)

func setupRouter(t *testing.T) *gin.Engine {
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
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigrateModels(db))
	database.SetDB(db)

	cfg := &config.Config{
		SessionSecret:         "test-session-secret",
		JWTSecret:             "test-jwt-secret",
		JWTTTL:                time.Hour,
		AdminToken:            "admin-secret",
		DefaultDailyHourLimit: 8,
		PhotoMaxBytes:         1 << 20,
		PhotoMaxDimension:     640,
		CORSOrigins:           []string{"*"},
		AuthRateLimit:         100,
		MaxRequestBytes:       1 << 20,
	}
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	return newRouter(cfg, db, store, lock.NewLocalLocker(), ratelimit.NewMemoryLimiter(cfg.AuthRateLimit, time.Hour))
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequiresAuth(t *testing.T) {
	r := setupRouter(t)

	for _, path := range []string{"/api/records/open", "/api/stats", "/api/jobs", "/api/schedules"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/admin/users/someone/premium", "", map[string]bool{"isPremium": true})

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ClockFlow(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "worker@example.com",
		"password": "supersecret",
		"name":     "Worker",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	token := auth.Token

	w = doJSON(t, r, http.MethodPost, "/api/jobs", token, map[string]interface{}{
		"name":       "Bakery",
		"hourlyRate": 1200,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var job dto.JobDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))

	w = doJSON(t, r, http.MethodPost, "/api/records/clock-in", token, map[string]string{"jobId": job.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var record dto.TimeRecordDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))

	w = doJSON(t, r, http.MethodPost, "/api/records/clock-in", token, map[string]string{"jobId": job.ID})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/records/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.ClockStatusDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "working", status.State)

	w = doJSON(t, r, http.MethodPost, "/api/records/clock-out", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/records/clock-out", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/records/"+record.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/records/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestRouter_RecordHiddenFromStranger(t *testing.T) {
	r := setupRouter(t)

	register := func(email string) string {
		w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    email,
			"password": "supersecret",
			"name":     "User",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var auth dto.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
		return auth.Token
	}
	owner := register("owner@example.com")
	stranger := register("stranger@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/jobs", owner, map[string]interface{}{"name": "Cafe", "hourlyRate": 1000})
	require.Equal(t, http.StatusCreated, w.Code)
	var job dto.JobDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))

	w = doJSON(t, r, http.MethodPost, "/api/records/clock-in", owner, map[string]string{"jobId": job.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var record dto.TimeRecordDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))

	w = doJSON(t, r, http.MethodGet, "/api/records/"+record.ID, stranger, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
