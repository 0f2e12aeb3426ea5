package constants

// Context and session keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
	SessionCookieName  = "timecard_session"
)

// Validation limits
const (
	MinPasswordLength = 6
	MaxNameLength     = 100
	MaxNoteLength     = 500
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Team invite codes
const (
	InviteCodeLength      = 6
	InviteCodeMaxAttempts = 10
)

// Work time defaults
const (
	DefaultDailyHourLimit = 8.0
	MaxBreakMinutes       = 24 * 60
	FreeActiveJobLimit    = 1
)

// Schedule assistant
const (
	MaxAIGeneratedSchedules = 62
)

// Header used by back-office tooling for privileged user updates
const AdminTokenHeader = "X-Admin-Token"
