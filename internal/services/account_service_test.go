package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := setupServiceTestEnv(t)

	user, err := env.auth.Register(RegisterInput{
		Email:    " Mika@Example.com ",
		Password: "supersecret",
		Name:     "Mika",
	})
	require.NoError(t, err)
	assert.Equal(t, "mika@example.com", user.Email)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	_, err = env.auth.Register(RegisterInput{Email: "mika@example.com", Password: "supersecret", Name: "Again"})
	require.ErrorIs(t, err, ErrEmailTaken)
	require.ErrorIs(t, err, apierrors.ErrConflict)

	logged, err := env.auth.Login(LoginInput{Email: "MIKA@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = env.auth.Login(LoginInput{Email: "mika@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := setupServiceTestEnv(t)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "supersecret", Name: "A"}, ErrInvalidEmail},
		{"short password", RegisterInput{Email: "a@example.com", Password: "123", Name: "A"}, ErrPasswordTooShort},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "supersecret", Name: "  "}, ErrNameRequired},
		{"unknown role", RegisterInput{Email: "a@example.com", Password: "supersecret", Name: "A", Role: "owner"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(tt.input)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, apierrors.ErrValidation)
		})
	}
}

func TestAuthService_Tokens(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "token@example.com", models.RoleEmployee)

	token, expiresAt, err := env.auth.IssueToken(user)
	require.NoError(t, err)
	assert.Equal(t, env.now.Add(time.Hour), expiresAt)

	id, err := env.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	env.now = env.now.Add(2 * time.Hour)
	_, err = env.auth.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(env.users, "another-secret", time.Hour)
	other.now = env.fixedClock
	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "me@example.com", models.RoleEmployee)
	other := env.createUser(t, "you@example.com", models.RoleEmployee)

	updated, err := env.userSvc.UpdateProfile(user.ID, user.ID, UpdateUserInput{Name: strPtr("  New Name ")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "me@example.com", updated.Email)

	_, err = env.userSvc.UpdateProfile(other.ID, user.ID, UpdateUserInput{Name: strPtr("Hacked")})
	require.ErrorIs(t, err, ErrNotYourAccount)

	_, err = env.userSvc.UpdateProfile(user.ID, user.ID, UpdateUserInput{})
	require.ErrorIs(t, err, ErrNothingToApply)

	_, err = env.userSvc.GetUser(other.ID, user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteManagerClearsTeam(t *testing.T) {
	env := setupServiceTestEnv(t)
	f := setupTeam(t, env)
	job := env.createJob(t, f.manager.ID, 300)
	env.createClosedRecord(t, f.manager.ID, job.ID, env.now.Add(-3*time.Hour), time.Hour)

	require.ErrorIs(t, env.userSvc.DeleteUser(f.alice.ID, f.manager.ID), ErrNotYourAccount)
	require.NoError(t, env.userSvc.DeleteUser(f.manager.ID, f.manager.ID))

	_, err := env.users.FindByID(f.manager.ID)
	require.Error(t, err)
	_, err = env.teams.FindByID(f.team.ID)
	require.Error(t, err)

	alice, err := env.users.FindByID(f.alice.ID)
	require.NoError(t, err)
	assert.Nil(t, alice.TeamID)

	var records int64
	require.NoError(t, env.db.Model(&models.TimeRecord{}).Where("user_id = ?", f.manager.ID).Count(&records).Error)
	assert.Zero(t, records)
}

func TestJobService_FreePlanLimit(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "jobs@example.com", models.RoleEmployee)

	first, err := env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Cafe", HourlyRate: 190})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusActive, first.Status)
	assert.Equal(t, 8.0, first.DailyHourLimit)
	assert.Len(t, first.Color, 7)

	_, err = env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Tutor", HourlyRate: 500})
	require.ErrorIs(t, err, ErrJobLimitReached)

	_, err = env.userSvc.SetPremium(user.ID, true, timePtr(env.now.Add(24*time.Hour)))
	require.NoError(t, err)
	second, err := env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Tutor", HourlyRate: 500})
	require.NoError(t, err)

	_, err = env.userSvc.SetPremium(user.ID, false, nil)
	require.NoError(t, err)
	_, err = env.jobSvc.RetireJob(user.ID, second.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.RestoreJob(user.ID, second.ID)
	require.ErrorIs(t, err, ErrJobLimitReached)

	active, err := env.jobSvc.ListJobs(user.ID, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := env.jobSvc.ListJobs(user.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJobService_Validation(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "rates@example.com", models.RoleEmployee)
	other := env.createUser(t, "other@example.com", models.RoleEmployee)

	_, err := env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Cafe", HourlyRate: 0})
	require.ErrorIs(t, err, ErrInvalidHourlyRate)
	_, err = env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "", HourlyRate: 100})
	require.ErrorIs(t, err, ErrJobNameRequired)
	_, err = env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Cafe", HourlyRate: 100, Color: "red"})
	require.ErrorIs(t, err, ErrInvalidJobColor)
	_, err = env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Cafe", HourlyRate: 100, DailyHourLimit: floatPtr(0)})
	require.ErrorIs(t, err, ErrInvalidDailyLimit)

	job, err := env.jobSvc.CreateJob(user.ID, CreateJobInput{Name: "Cafe", HourlyRate: 100, Color: "#aabbcc"})
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", job.Color)

	updated, err := env.jobSvc.UpdateJob(user.ID, job.ID, UpdateJobInput{HourlyRate: floatPtr(120)})
	require.NoError(t, err)
	assert.Equal(t, 120.0, updated.HourlyRate)

	_, err = env.jobSvc.UpdateJob(other.ID, job.ID, UpdateJobInput{HourlyRate: floatPtr(1)})
	require.ErrorIs(t, err, ErrJobNotFound)
	_, err = env.jobSvc.UpdateJob(user.ID, job.ID, UpdateJobInput{HourlyRate: floatPtr(-1)})
	require.ErrorIs(t, err, ErrInvalidHourlyRate)
}
