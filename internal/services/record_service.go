package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/constants"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/photo"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/timezone"
	"github.com/yukikurage/timecard-api/internal/utils"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

var (
	ErrAlreadyClockedIn      = apierrors.Conflict("user already has an open time record")
	ErrNoOpenRecord          = apierrors.NotFound("no open time record to clock out")
	ErrRecordNotFound        = apierrors.NotFound("time record not found")
	ErrJobRequired           = apierrors.Validation("jobId is required")
	ErrJobRetired            = apierrors.Validation("job is retired")
	ErrClockOutBeforeClockIn = apierrors.Validation("clock out must not be before clock in")
	ErrClockOutConflict      = apierrors.Validation("clockOut and clearClockOut cannot be combined")
	ErrInvalidBreak          = apierrors.Validation(fmt.Sprintf("break minutes must be between 0 and %d", constants.MaxBreakMinutes))
	ErrNoteTooLong           = apierrors.Validation(fmt.Sprintf("note must be at most %d characters", constants.MaxNoteLength))
	ErrNotRecordOwner        = apierrors.Forbidden("only the record owner can change it")
	ErrInvalidPhoto          = apierrors.Validation("photo must be a png, jpeg or webp image")
	ErrPhotoTooLarge         = apierrors.Validation("photo is too large")
	ErrPhotoNotFound         = apierrors.NotFound("photo not found")
	ErrInvalidPhotoKind      = apierrors.Validation("photo kind must be clock-in or clock-out")
	ErrInvalidDate           = apierrors.Validation("dates must be YYYY-MM-DD")
	ErrInvalidDateRange      = apierrors.Validation("startDate must not be after endDate")
	ErrInvalidOrder          = apierrors.Validation("order must be asc or desc")
	ErrLockUnavailable       = apierrors.Unavailable("another clock operation is in progress, try again")
)

const (
	PhotoKindClockIn  = "clock-in"
	PhotoKindClockOut = "clock-out"
)

// PhotoStore saves request photo payloads and loads or deletes stored references.
type PhotoStore interface {
	Save(ctx context.Context, userID, kind, payload string) (*string, error)
	Load(ctx context.Context, ref string) ([]byte, string, error)
	Delete(ctx context.Context, ref string) error
}

const photoCleanupTimeout = 10 * time.Second

// RecordService is the clock engine: it owns the idle/working state of each
// user and guarantees at most one open record per user.
type RecordService struct {
	recordRepo repository.TimeRecordRepository
	jobRepo    repository.JobRepository
	access     accessChecker
	locker     lock.Locker
	photos     PhotoStore
	now        Clock
	loc        *time.Location
}

func NewRecordService(
	recordRepo repository.TimeRecordRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	locker lock.Locker,
	photos PhotoStore,
	loc *time.Location,
) *RecordService {
	return &RecordService{
		recordRepo: recordRepo,
		jobRepo:    jobRepo,
		access:     accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		locker:     locker,
		photos:     photos,
		now:        systemClock,
		loc:        loc,
	}
}

// withUserLock runs fn while holding the user's clock lock, so the open-record
// check and the write that follows cannot interleave with another request.
func (s *RecordService) withUserLock(ctx context.Context, userID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, "clock:"+userID)
	if err != nil {
		slog.Warn("clock lock unavailable", "user_id", userID, "error", err)
		return ErrLockUnavailable
	}
	defer unlock()
	return fn()
}

func (s *RecordService) findOpen(userID string) (*models.TimeRecord, error) {
	open, err := s.recordRepo.FindOpenByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apierrors.Store("find open record", err)
	}
	return open, nil
}

// clockInJob checks that userID is idle and may work on jobID.
func (s *RecordService) clockInJob(userID, jobID string) (*models.Job, error) {
	open, err := s.findOpen(userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyClockedIn
	}

	job, err := s.ownedJob(userID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive() {
		return nil, ErrJobRetired
	}
	return job, nil
}

// openRecord returns the user's open record or ErrNoOpenRecord.
func (s *RecordService) openRecord(userID string) (*models.TimeRecord, error) {
	open, err := s.findOpen(userID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoOpenRecord
	}
	return open, nil
}

func (s *RecordService) ownedJob(userID, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, apierrors.Store("find job", err)
	}
	if job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *RecordService) savePhoto(ctx context.Context, userID, kind, payload string) (*string, error) {
	if s.photos == nil || strings.TrimSpace(payload) == "" {
		return nil, nil
	}
	ref, err := s.photos.Save(ctx, userID, kind, payload)
	switch {
	case err == nil:
		return ref, nil
	case errors.Is(err, photo.ErrPhotoTooLarge):
		return nil, ErrPhotoTooLarge
	case errors.Is(err, photo.ErrInvalidPhoto):
		return nil, ErrInvalidPhoto
	default:
		return nil, apierrors.Store("store photo", err)
	}
}

// discardPhoto removes a photo stored for a clock operation that did not
// complete. Failures are logged; the object is then orphaned.
func (s *RecordService) discardPhoto(ctx context.Context, ref *string) {
	if ref == nil || s.photos == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), photoCleanupTimeout)
	defer cancel()
	if err := s.photos.Delete(ctx, *ref); err != nil {
		slog.Warn("failed to discard photo", "ref", *ref, "error", err)
	}
}

// ClockInInput carries the job to work on and an optional photo payload.
type ClockInInput struct {
	JobID string
	Photo string
}

// ClockIn opens a record for userID at the current instant.
func (s *RecordService) ClockIn(ctx context.Context, userID string, input ClockInInput) (*models.TimeRecord, error) {
	jobID := strings.TrimSpace(input.JobID)
	if jobID == "" {
		return nil, ErrJobRequired
	}

	// Photos are stored before locking; the lock covers only the check and
	// the write, and the checks are repeated under it.
	if _, err := s.clockInJob(userID, jobID); err != nil {
		return nil, err
	}
	photoRef, err := s.savePhoto(ctx, userID, PhotoKindClockIn, input.Photo)
	if err != nil {
		return nil, err
	}

	var record *models.TimeRecord
	err = s.withUserLock(ctx, userID, func() error {
		job, err := s.clockInJob(userID, jobID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		r := &models.TimeRecord{
			UserID:       userID,
			JobID:        job.ID,
			ClockIn:      now,
			ClockInPhoto: photoRef,
			Date:         timezone.DateOf(now, s.loc),
		}
		if err := s.recordRepo.Create(r); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClockedIn
			}
			return apierrors.Store("create time record", err)
		}
		record = r
		return nil
	})
	if err != nil {
		s.discardPhoto(ctx, photoRef)
		return nil, err
	}

	slog.Info("clock in", "user_id", userID, "record_id", record.ID, "job_id", record.JobID)
	return record, nil
}

// ClockOutInput carries optional fields recorded when a shift ends.
type ClockOutInput struct {
	Photo        string
	Note         *string
	BreakMinutes *int
}

// ClockOut closes the user's open record at the current instant.
func (s *RecordService) ClockOut(ctx context.Context, userID string, input ClockOutInput) (*models.TimeRecord, error) {
	if err := validateBreakAndNote(input.BreakMinutes, input.Note); err != nil {
		return nil, err
	}

	if _, err := s.openRecord(userID); err != nil {
		return nil, err
	}
	photoRef, err := s.savePhoto(ctx, userID, PhotoKindClockOut, input.Photo)
	if err != nil {
		return nil, err
	}

	var record *models.TimeRecord
	err = s.withUserLock(ctx, userID, func() error {
		open, err := s.openRecord(userID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		open.ClockOut = &now
		open.ClockOutPhoto = photoRef
		if input.BreakMinutes != nil {
			open.BreakMinutes = *input.BreakMinutes
		}
		if input.Note != nil {
			open.Note = strings.TrimSpace(*input.Note)
		}
		if err := s.recordRepo.Update(open); err != nil {
			return apierrors.Store("close time record", err)
		}
		record = open
		return nil
	})
	if err != nil {
		s.discardPhoto(ctx, photoRef)
		return nil, err
	}

	slog.Info("clock out",
		"user_id", userID,
		"record_id", record.ID,
		"minutes", worktime.MinutesWorked(record),
	)
	return record, nil
}

// GetOpenRecord returns the user's open record, or nil when idle.
func (s *RecordService) GetOpenRecord(_ context.Context, userID string) (*models.TimeRecord, error) {
	return s.findOpen(userID)
}

type ClockState string

const (
	ClockStateIdle    ClockState = "idle"
	ClockStateWorking ClockState = "working"
)

// ClockStatus is the user's current state with provisional minutes while working.
type ClockStatus struct {
	State       ClockState
	Record      *models.TimeRecord
	LiveMinutes int
}

func (s *RecordService) Status(ctx context.Context, userID string) (*ClockStatus, error) {
	open, err := s.GetOpenRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &ClockStatus{State: ClockStateIdle}, nil
	}
	return &ClockStatus{
		State:       ClockStateWorking,
		Record:      open,
		LiveMinutes: worktime.LiveMinutes(open, s.now()),
	}, nil
}

// GetRecord returns a record to its owner or the owner's manager.
func (s *RecordService) GetRecord(_ context.Context, actorID, recordID string) (*models.TimeRecord, error) {
	record, err := s.recordRepo.FindByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, apierrors.Store("find time record", err)
	}
	if err := s.access.canView(actorID, record.UserID); err != nil {
		if errors.Is(err, ErrNotTeamScope) || errors.Is(err, ErrUserNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListRecordsInput filters a record listing. Dates are inclusive YYYY-MM-DD.
type ListRecordsInput struct {
	UserID     string
	StartDate  string
	EndDate    string
	JobID      string
	Order      string
	Pagination utils.PaginationParams
}

// ListRecords lists records of input.UserID, defaulting to the actor.
func (s *RecordService) ListRecords(_ context.Context, actorID string, input ListRecordsInput) ([]models.TimeRecord, int64, error) {
	userID := input.UserID
	if userID == "" {
		userID = actorID
	}
	if err := validateDateRange(input.StartDate, input.EndDate, s.loc); err != nil {
		return nil, 0, err
	}

	ascending := false
	switch strings.ToLower(input.Order) {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		return nil, 0, ErrInvalidOrder
	}

	if err := s.access.canView(actorID, userID); err != nil {
		return nil, 0, err
	}

	records, total, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:    []string{userID},
		JobID:      input.JobID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Ascending:  ascending,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, apierrors.Store("list time records", err)
	}
	return records, total, nil
}

// UpdateRecordInput is the allow-list of manually editable record fields.
type UpdateRecordInput struct {
	ClockIn       *time.Time
	ClockOut      *time.Time
	ClearClockOut bool
	BreakMinutes  *int
	Note          *string
	JobID         *string
}

// UpdateRecord applies a manual correction by the record's owner. Reopening a
// record is refused while the owner has another open record.
func (s *RecordService) UpdateRecord(ctx context.Context, actorID, recordID string, input UpdateRecordInput) (*models.TimeRecord, error) {
	if input.ClearClockOut && input.ClockOut != nil {
		return nil, ErrClockOutConflict
	}
	if err := validateBreakAndNote(input.BreakMinutes, input.Note); err != nil {
		return nil, err
	}

	current, err := s.ownRecord(ctx, actorID, recordID)
	if err != nil {
		return nil, err
	}

	var record *models.TimeRecord
	err = s.withUserLock(ctx, current.UserID, func() error {
		r, err := s.recordRepo.FindByID(recordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return apierrors.Store("find time record", err)
		}
		wasOpen := r.IsOpen()

		if input.JobID != nil {
			job, err := s.ownedJob(r.UserID, strings.TrimSpace(*input.JobID))
			if err != nil {
				return err
			}
			r.JobID = job.ID
		}
		if input.ClockIn != nil {
			in := input.ClockIn.UTC()
			r.ClockIn = in
		}
		if input.ClockOut != nil {
			out := input.ClockOut.UTC()
			r.ClockOut = &out
		}
		if input.ClearClockOut {
			r.ClockOut = nil
		}
		if r.ClockOut != nil && r.ClockOut.Before(r.ClockIn) {
			return ErrClockOutBeforeClockIn
		}
		if input.BreakMinutes != nil {
			r.BreakMinutes = *input.BreakMinutes
		}
		if input.Note != nil {
			r.Note = strings.TrimSpace(*input.Note)
		}

		if r.IsOpen() && !wasOpen {
			open, err := s.findOpen(r.UserID)
			if err != nil {
				return err
			}
			if open != nil && open.ID != r.ID {
				return ErrAlreadyClockedIn
			}
		}

		r.Date = timezone.DateOf(r.ClockIn, s.loc)
		r.IsManualEdit = true
		if err := s.recordRepo.Update(r); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClockedIn
			}
			return apierrors.Store("update time record", err)
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("time record edited", "user_id", record.UserID, "record_id", record.ID)
	return record, nil
}

// DeleteRecord removes one of the actor's own records.
func (s *RecordService) DeleteRecord(ctx context.Context, actorID, recordID string) error {
	record, err := s.ownRecord(ctx, actorID, recordID)
	if err != nil {
		return err
	}
	return s.withUserLock(ctx, record.UserID, func() error {
		if err := s.recordRepo.Delete(recordID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return apierrors.Store("delete time record", err)
		}
		return nil
	})
}

// ownRecord loads a record the actor may see and requires them to own it.
func (s *RecordService) ownRecord(ctx context.Context, actorID, recordID string) (*models.TimeRecord, error) {
	record, err := s.GetRecord(ctx, actorID, recordID)
	if err != nil {
		return nil, err
	}
	if record.UserID != actorID {
		return nil, ErrNotRecordOwner
	}
	return record, nil
}

// Photo loads the clock-in or clock-out photo of a record.
func (s *RecordService) Photo(ctx context.Context, actorID, recordID, kind string) ([]byte, string, error) {
	record, err := s.GetRecord(ctx, actorID, recordID)
	if err != nil {
		return nil, "", err
	}

	var ref *string
	switch kind {
	case PhotoKindClockIn:
		ref = record.ClockInPhoto
	case PhotoKindClockOut:
		ref = record.ClockOutPhoto
	default:
		return nil, "", ErrInvalidPhotoKind
	}
	if ref == nil || *ref == "" || s.photos == nil {
		return nil, "", ErrPhotoNotFound
	}

	data, contentType, err := s.photos.Load(ctx, *ref)
	if err != nil {
		if errors.Is(err, photo.ErrPhotoNotFound) {
			return nil, "", ErrPhotoNotFound
		}
		return nil, "", apierrors.Store("load photo", err)
	}
	return data, contentType, nil
}

func validateBreakAndNote(breakMinutes *int, note *string) error {
	if breakMinutes != nil && (*breakMinutes < 0 || *breakMinutes > constants.MaxBreakMinutes) {
		return ErrInvalidBreak
	}
	if note != nil && len([]rune(*note)) > constants.MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

func validateDateRange(start, end string, loc *time.Location) error {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = timezone.ParseDate(start, loc); err != nil {
			return ErrInvalidDate
		}
	}
	if end != "" {
		if to, err = timezone.ParseDate(end, loc); err != nil {
			return ErrInvalidDate
		}
	}
	if start != "" && end != "" && from.After(to) {
		return ErrInvalidDateRange
	}
	return nil
}
