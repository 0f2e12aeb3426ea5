package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
)

func TestScheduleHandler_CreateListDelete(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user := env.createUser(t, "planner@example.com", models.RoleEmployee)

	body := mustJSON(t, map[string]interface{}{
		"mode":      "weekly",
		"weekday":   1,
		"startTime": "09:00",
		"endTime":   "17:00",
	})
	c, w := authContext(http.MethodPost, "/api/schedules", body, user.ID)
	env.schedules.CreateSchedule(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.ScheduleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, models.ScheduleModeWeekly, created.Mode)
	require.Nil(t, created.Date)

	c, w = authContext(http.MethodGet, "/api/schedules", nil, user.ID)
	env.schedules.ListSchedules(c)

	require.Equal(t, http.StatusOK, w.Code)
	var listed []dto.ScheduleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	c, w = authContext(http.MethodDelete, "/api/schedules/"+created.ID, nil, user.ID)
	c.Params = gin.Params{{Key: "id", Value: created.ID}}
	env.schedules.DeleteSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleHandler_CreateSchedule_Invalid(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user := env.createUser(t, "planner@example.com", models.RoleEmployee)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing times", map[string]interface{}{"date": "2025-03-10"}},
		{"end before start", map[string]interface{}{"date": "2025-03-10", "startTime": "17:00", "endTime": "09:00"}},
		{"bad weekday", map[string]interface{}{"mode": "weekly", "weekday": 9, "startTime": "09:00", "endTime": "17:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := authContext(http.MethodPost, "/api/schedules", mustJSON(t, tt.body), user.ID)
			env.schedules.CreateSchedule(c)

			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestScheduleHandler_GenerateSchedules_NotConfigured(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user := env.createUser(t, "planner@example.com", models.RoleEmployee)

	body := mustJSON(t, map[string]string{"text": "Mondays 9 to 5"})
	c, w := authContext(http.MethodPost, "/api/schedules/generate", body, user.ID)
	env.schedules.GenerateSchedules(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, apierrors.ErrCodeServiceUnavailable, decodeError(t, w).Code)
}

func TestScheduleHandler_UpdateSchedule_Stranger(t *testing.T) {
	env := setupHandlerTestEnv(t)
	owner := env.createUser(t, "owner@example.com", models.RoleEmployee)
	stranger := env.createUser(t, "stranger@example.com", models.RoleEmployee)

	body := mustJSON(t, map[string]interface{}{"date": "2025-03-10", "startTime": "09:00", "endTime": "12:00"})
	c, w := authContext(http.MethodPost, "/api/schedules", body, owner.ID)
	env.schedules.CreateSchedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.ScheduleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	c, w = authContext(http.MethodPatch, "/api/schedules/"+created.ID, mustJSON(t, map[string]string{"note": "mine now"}), stranger.ID)
	c.Params = gin.Params{{Key: "id", Value: created.ID}}
	env.schedules.UpdateSchedule(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
