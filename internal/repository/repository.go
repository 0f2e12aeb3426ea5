package repository

import (
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by lower-cased email
	FindByEmail(email string) (*models.User, error)

	// Update applies an allow-listed set of column updates
	Update(id string, updates map[string]interface{}) error

	// ListByTeam lists users whose team reference points at teamID
	ListByTeam(teamID string) ([]models.User, error)

	// SetTeam sets or clears a user's team reference
	SetTeam(userID string, teamID *string) error

	// DeleteCascade deletes a user with their jobs, records and schedules.
	// A manager's team is deleted and its members' team references cleared.
	DeleteCascade(userID string) (*DeleteSummary, error)
}

// DeleteSummary counts the rows removed by a cascading user delete
type DeleteSummary struct {
	Jobs           int64
	Records        int64
	Schedules      int64
	TeamDeleted    bool
	MembersCleared int64
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// CreateWithManager creates a team and points the manager at it in one transaction
	CreateWithManager(team *models.Team) error

	// FindByID finds a team by ID
	FindByID(id string) (*models.Team, error)

	// FindByInviteCode finds a team by invite code, ignoring case
	FindByInviteCode(code string) (*models.Team, error)

	// FindByManager finds the team managed by managerID
	FindByManager(managerID string) (*models.Team, error)

	// InviteCodeExists reports whether any team uses code
	InviteCodeExists(code string) (bool, error)

	// Update updates a team
	Update(team *models.Team) error
}

// JobRepository defines the interface for job data access
type JobRepository interface {
	Create(job *models.Job) error
	FindByID(id string) (*models.Job, error)

	// ListByUser lists a user's jobs, oldest first
	ListByUser(userID string, includeRetired bool) ([]models.Job, error)

	// CountActive counts a user's active jobs
	CountActive(userID string) (int64, error)

	// Update applies an allow-listed set of column updates
	Update(id string, updates map[string]interface{}) error
}

// TimeRecordRepository defines the interface for time record data access
type TimeRecordRepository interface {
	Create(record *models.TimeRecord) error
	FindByID(id string) (*models.TimeRecord, error)

	// FindOpenByUser returns the user's record without a clock-out, or
	// gorm.ErrRecordNotFound.
	FindOpenByUser(userID string) (*models.TimeRecord, error)

	// List retrieves records with filtering and optional pagination
	List(filter RecordFilter) ([]models.TimeRecord, int64, error)

	// Update saves every field of record
	Update(record *models.TimeRecord) error

	Delete(id string) error
}

// RecordFilter holds filtering options for listing time records.
// StartDate and EndDate are inclusive YYYY-MM-DD bounds on the record date.
type RecordFilter struct {
	UserIDs   []string
	JobID     string
	StartDate string
	EndDate   string
	// ClockInFrom and ClockInTo bound clock-in as [from, to) when set.
	ClockInFrom *time.Time
	ClockInTo   *time.Time
	OnlyClosed  bool
	Ascending   bool
	Pagination  utils.PaginationParams
}

// ScheduleRepository defines the interface for schedule data access
type ScheduleRepository interface {
	Create(schedule *models.Schedule) error
	FindByID(id string) (*models.Schedule, error)
	List(filter ScheduleFilter) ([]models.Schedule, error)
	Update(schedule *models.Schedule) error
	Delete(id string) error
}

// ScheduleFilter selects schedules of UserIDs. Date-mode entries are limited to
// [FromDate, ToDate]; weekly entries always match.
type ScheduleFilter struct {
	UserIDs  []string
	FromDate string
	ToDate   string
}
