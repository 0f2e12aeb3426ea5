package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/timezone"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

const (
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	recordsSheet = "Records"
	summarySheet = "Summary"
)

// ExportService renders timesheets as xlsx workbooks.
type ExportService struct {
	recordRepo   repository.TimeRecordRepository
	jobRepo      repository.JobRepository
	access       accessChecker
	now          Clock
	loc          *time.Location
	defaultLimit float64
}

func NewExportService(
	recordRepo repository.TimeRecordRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	loc *time.Location,
	defaultLimit float64,
) *ExportService {
	return &ExportService{
		recordRepo:   recordRepo,
		jobRepo:      jobRepo,
		access:       accessChecker{userRepo: userRepo, teamRepo: teamRepo},
		now:          systemClock,
		loc:          loc,
		defaultLimit: defaultLimit,
	}
}

// ExportInput selects the records to export. Without dates the current
// month is exported.
type ExportInput struct {
	UserID    string
	StartDate string
	EndDate   string
	JobID     string
}

type ExportResult struct {
	Filename string
	Data     []byte
}

func (s *ExportService) Export(_ context.Context, actorID string, input ExportInput) (*ExportResult, error) {
	userID := input.UserID
	if userID == "" {
		userID = actorID
	}
	if input.StartDate == "" && input.EndDate == "" {
		month := worktime.WindowsAt(s.now(), s.loc).Month
		input.StartDate = timezone.DateOf(month.Start, s.loc)
		input.EndDate = timezone.DateOf(month.End.AddDate(0, 0, -1), s.loc)
	}
	if err := validateDateRange(input.StartDate, input.EndDate, s.loc); err != nil {
		return nil, err
	}
	if err := s.access.canView(actorID, userID); err != nil {
		return nil, err
	}
	user, err := s.access.findUser(userID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobRepo.ListByUser(userID, true)
	if err != nil {
		return nil, apierrors.Store("list jobs", err)
	}
	records, _, err := s.recordRepo.List(repository.RecordFilter{
		UserIDs:   []string{userID},
		JobID:     input.JobID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Ascending: true,
	})
	if err != nil {
		return nil, apierrors.Store("list time records", err)
	}

	data, err := s.workbook(user, jobs, records, input)
	if err != nil {
		return nil, fmt.Errorf("build timesheet: %w", err)
	}
	return &ExportResult{
		Filename: fmt.Sprintf("timesheet_%s_%s.xlsx", input.StartDate, input.EndDate),
		Data:     data,
	}, nil
}

func (s *ExportService) workbook(user *models.User, jobs []models.Job, records []models.TimeRecord, input ExportInput) ([]byte, error) {
	byID := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	opts := worktime.Options{
		RateByJob:      rateTable(jobs),
		DailyHourLimit: s.defaultLimit,
		Location:       s.loc,
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(recordsSheet, "A1", &[]interface{}{
		"Date", "Job", "Clock in", "Clock out", "Break (min)", "Worked (min)", "Hours", "Hourly rate", "Earnings", "Note", "Edited",
	}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(recordsSheet, "A1", "K1", header); err != nil {
		return nil, err
	}

	type jobTotal struct {
		name     string
		minutes  int
		earnings float64
		records  int
	}
	totals := make(map[string]*jobTotal)

	for i := range records {
		r := &records[i]
		job := byID[r.JobID]
		rate := job.HourlyRate
		minutes := worktime.MinutesWorked(r)
		earnings := worktime.Earnings(r, rate)

		clockOut := ""
		if r.ClockOut != nil {
			clockOut = r.ClockOut.In(s.loc).Format("15:04")
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(recordsSheet, cell, &[]interface{}{
			r.Date,
			job.Name,
			r.ClockIn.In(s.loc).Format("15:04"),
			clockOut,
			r.BreakMinutes,
			minutes,
			float64(minutes) / 60,
			rate,
			worktime.RoundCurrency(earnings),
			r.Note,
			r.IsManualEdit,
		}); err != nil {
			return nil, err
		}

		if r.ClockOut == nil {
			continue
		}
		t, ok := totals[r.JobID]
		if !ok {
			t = &jobTotal{name: job.Name}
			totals[r.JobID] = t
		}
		t.minutes += minutes
		t.earnings += earnings
		t.records++
	}
	if err := f.SetColWidth(recordsSheet, "A", "A", 12); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(recordsSheet, "J", "J", 40); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := worktime.Summarize(records, opts, exportPeriod(input, s.loc))
	rows := [][]interface{}{
		{"Name", user.Name},
		{"Email", user.Email},
		{"From", input.StartDate},
		{"To", input.EndDate},
		{"Records", summary.RecordCount},
		{"Work days", summary.WorkDays()},
		{"Total minutes", summary.TotalMinutes},
		{"Total hours", summary.TotalHours},
		{"Overtime minutes", summary.OvertimeMinutes},
		{"Total earnings", worktime.RoundCurrency(summary.TotalEarnings)},
		{},
		{"Job", "Records", "Minutes", "Earnings"},
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return totals[ids[i]].name < totals[ids[j]].name })
	for _, id := range ids {
		t := totals[id]
		rows = append(rows, []interface{}{t.name, t.records, t.minutes, worktime.RoundCurrency(t.earnings)})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A10", header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A12", "D12", header); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 18); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// exportPeriod turns the inclusive date bounds into a Range. A missing bound
// leaves that side open.
func exportPeriod(input ExportInput, loc *time.Location) worktime.Range {
	rng := worktime.Range{End: time.Date(9999, 12, 31, 0, 0, 0, 0, loc)}
	if t, err := timezone.ParseDate(input.StartDate, loc); err == nil {
		rng.Start = t
	}
	if t, err := timezone.ParseDate(input.EndDate, loc); err == nil {
		rng.End = t.AddDate(0, 0, 1)
	}
	return rng
}
