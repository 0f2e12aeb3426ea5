package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
)

// fakeOpenAI answers every chat completion with content.
func fakeOpenAI(t *testing.T, content string) *AIService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  openai.GPT4o,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return NewAIServiceWithConfig(cfg, "")
}

func TestScheduleService_CreateAndList(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "plan@example.com", models.RoleEmployee)

	dated, err := env.schedSvc.Create(user.ID, CreateScheduleInput{
		Date:      strPtr("2025-03-10"),
		Weekday:   intPtr(3),
		StartTime: "09:00",
		EndTime:   "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleModeDate, dated.Mode)
	assert.Nil(t, dated.Weekday)

	weekly, err := env.schedSvc.Create(user.ID, CreateScheduleInput{
		Mode:      models.ScheduleModeWeekly,
		Weekday:   intPtr(1),
		StartTime: "18:00",
		EndTime:   "21:30",
	})
	require.NoError(t, err)
	assert.Nil(t, weekly.Date)

	_, err = env.schedSvc.Create(user.ID, CreateScheduleInput{
		Mode:      models.ScheduleModeDate,
		Date:      strPtr("2025-04-02"),
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)

	march, err := env.schedSvc.List(user.ID, 2025, 3)
	require.NoError(t, err)
	assert.Len(t, march, 2)

	all, err := env.schedSvc.List(user.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestScheduleService_Validation(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "bad@example.com", models.RoleEmployee)

	tests := []struct {
		name  string
		input CreateScheduleInput
	}{
		{"end before start", CreateScheduleInput{Date: strPtr("2025-03-10"), StartTime: "17:00", EndTime: "09:00"}},
		{"malformed time", CreateScheduleInput{Date: strPtr("2025-03-10"), StartTime: "9am", EndTime: "17:00"}},
		{"missing date", CreateScheduleInput{StartTime: "09:00", EndTime: "17:00"}},
		{"bad weekday", CreateScheduleInput{Mode: models.ScheduleModeWeekly, Weekday: intPtr(7), StartTime: "09:00", EndTime: "17:00"}},
		{"unknown mode", CreateScheduleInput{Mode: "monthly", StartTime: "09:00", EndTime: "17:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.schedSvc.Create(user.ID, tt.input)
			require.ErrorIs(t, err, apierrors.ErrValidation)
		})
	}
}

func TestScheduleService_ManagerPlansForMember(t *testing.T) {
	env := setupServiceTestEnv(t)
	f := setupTeam(t, env)

	schedule, err := env.schedSvc.Create(f.manager.ID, CreateScheduleInput{
		UserID:    f.alice.ID,
		Date:      strPtr("2025-03-12"),
		StartTime: "10:00",
		EndTime:   "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, schedule.UserID)
	assert.Equal(t, f.manager.ID, schedule.CreatedBy)

	_, err = env.schedSvc.Create(f.bob.ID, CreateScheduleInput{
		UserID:    f.alice.ID,
		Date:      strPtr("2025-03-12"),
		StartTime: "10:00",
		EndTime:   "15:00",
	})
	require.ErrorIs(t, err, apierrors.ErrForbidden)

	team, err := env.schedSvc.ListTeam(f.bob.ID, f.team.ID, 2025, 3)
	require.NoError(t, err)
	assert.Len(t, team, 1)

	_, err = env.schedSvc.Update(f.bob.ID, schedule.ID, UpdateScheduleInput{Note: strPtr("mine now")})
	require.ErrorIs(t, err, ErrScheduleNotFound)

	updated, err := env.schedSvc.Update(f.alice.ID, schedule.ID, UpdateScheduleInput{EndTime: strPtr("16:00")})
	require.NoError(t, err)
	assert.Equal(t, "16:00", updated.EndTime)

	_, err = env.schedSvc.Update(f.alice.ID, schedule.ID, UpdateScheduleInput{StartTime: strPtr("17:00")})
	require.ErrorIs(t, err, apierrors.ErrValidation)

	require.NoError(t, env.schedSvc.Delete(f.manager.ID, schedule.ID))
	require.ErrorIs(t, env.schedSvc.Delete(f.manager.ID, schedule.ID), ErrScheduleNotFound)
}

func TestScheduleService_GenerateWithoutAssistant(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "noai@example.com", models.RoleEmployee)

	_, err := env.schedSvc.Generate(context.Background(), user.ID, GenerateSchedulesInput{Text: "tomorrow 9-5"})
	require.ErrorIs(t, err, ErrAIServiceNotConfigured)
	require.ErrorIs(t, err, apierrors.ErrUnavailable)
}

func TestScheduleService_GenerateDropsInvalidDrafts(t *testing.T) {
	env := setupServiceTestEnv(t)
	env.schedSvc.ai = fakeOpenAI(t, "```json\n"+`[
		{"date": "2025-03-06", "start_time": "09:00", "end_time": "17:00", "note": "opening"},
		{"date": "2025-03-07", "start_time": "18:00", "end_time": "08:00", "note": ""},
		{"date": "2025-03-10", "start_time": "13:00", "end_time": "18:00", "note": ""}
	]`+"\n```")
	user := env.createUser(t, "ai@example.com", models.RoleEmployee)

	_, err := env.schedSvc.Generate(context.Background(), user.ID, GenerateSchedulesInput{Text: "  "})
	require.ErrorIs(t, err, ErrScheduleTextRequired)

	drafts, err := env.schedSvc.Generate(context.Background(), user.ID, GenerateSchedulesInput{
		Text: "Thursday 9 to 5, Friday night, Monday afternoon",
	})
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "opening", drafts[0].Note)

	stored, err := env.schedSvc.List(user.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	saved, err := env.schedSvc.Generate(context.Background(), user.ID, GenerateSchedulesInput{
		Text: "Thursday 9 to 5, Friday night, Monday afternoon",
		Save: true,
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEmpty(t, saved[0].ID)

	stored, err = env.schedSvc.List(user.ID, 2025, 3)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestParseGeneratedSchedules(t *testing.T) {
	schedules, err := parseGeneratedSchedules("[]")
	require.NoError(t, err)
	assert.Empty(t, schedules)

	_, err = parseGeneratedSchedules("Sorry, I can't help with that.")
	require.Error(t, err)
}
