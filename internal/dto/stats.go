package dto

import (
	"github.com/yukikurage/timecard-api/internal/services"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

// DaySummaryDTO is one calendar day of work.
type DaySummaryDTO struct {
	Date            string  `json:"date"`
	Minutes         int     `json:"minutes"`
	Hours           float64 `json:"hours"`
	Earnings        float64 `json:"earnings"`
	OvertimeMinutes int     `json:"overtimeMinutes"`
	RecordCount     int     `json:"recordCount"`
}

// SummaryDTO is a window summary with earnings rounded for display.
type SummaryDTO struct {
	Start              string          `json:"start"`
	End                string          `json:"end"`
	TotalMinutes       int             `json:"totalMinutes"`
	TotalHours         float64         `json:"totalHours"`
	TotalEarnings      float64         `json:"totalEarnings"`
	OvertimeMinutes    int             `json:"overtimeMinutes"`
	OvertimeHours      float64         `json:"overtimeHours"`
	RecordCount        int             `json:"recordCount"`
	WorkDays           int             `json:"workDays"`
	AverageHoursPerDay float64         `json:"averageHoursPerDay"`
	Days               []DaySummaryDTO `json:"days"`
}

// StatsDTO is the dashboard payload.
type StatsDTO struct {
	Today              SummaryDTO     `json:"today"`
	Week               SummaryDTO     `json:"week"`
	Month              SummaryDTO     `json:"month"`
	AverageHoursPerDay float64        `json:"averageHoursPerDay"`
	TotalRecords       int            `json:"totalRecords"`
	Status             ClockStatusDTO `json:"status"`
}

// MonthlyDTO is the history view of one month.
type MonthlyDTO struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Summary SummaryDTO      `json:"summary"`
	Days    []DaySummaryDTO `json:"days"`
	Records []TimeRecordDTO `json:"records"`
}

func ToDaySummaryDTO(d worktime.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:            d.Date,
		Minutes:         d.Minutes,
		Hours:           float64(d.Minutes) / 60,
		Earnings:        worktime.RoundCurrency(d.Earnings),
		OvertimeMinutes: d.OvertimeMinutes,
		RecordCount:     d.RecordCount,
	}
}

func ToDaySummaryDTOs(days []worktime.DaySummary) []DaySummaryDTO {
	out := make([]DaySummaryDTO, len(days))
	for i, d := range days {
		out[i] = ToDaySummaryDTO(d)
	}
	return out
}

func ToSummaryDTO(s worktime.Summary) SummaryDTO {
	return SummaryDTO{
		Start:              s.Period.Start.Format("2006-01-02"),
		End:                s.Period.End.AddDate(0, 0, -1).Format("2006-01-02"),
		TotalMinutes:       s.TotalMinutes,
		TotalHours:         s.TotalHours,
		TotalEarnings:      worktime.RoundCurrency(s.TotalEarnings),
		OvertimeMinutes:    s.OvertimeMinutes,
		OvertimeHours:      float64(s.OvertimeMinutes) / 60,
		RecordCount:        s.RecordCount,
		WorkDays:           s.WorkDays(),
		AverageHoursPerDay: s.AverageHoursPerDay(),
		Days:               ToDaySummaryDTOs(s.Days),
	}
}

func ToClockStatus(status *services.ClockStatus) ClockStatusDTO {
	if status == nil {
		return ClockStatusDTO{State: string(services.ClockStateIdle)}
	}
	return ToClockStatusDTO(string(status.State), status.Record, status.LiveMinutes)
}

func ToStatsDTO(result *services.StatsResult) StatsDTO {
	return StatsDTO{
		Today:              ToSummaryDTO(result.Today),
		Week:               ToSummaryDTO(result.Week),
		Month:              ToSummaryDTO(result.Month),
		AverageHoursPerDay: result.AverageHoursPerDay,
		TotalRecords:       result.TotalRecords,
		Status:             ToClockStatus(result.Status),
	}
}

func ToMonthlyDTO(result *services.MonthlyResult) MonthlyDTO {
	return MonthlyDTO{
		Year:    result.Year,
		Month:   result.Month,
		Summary: ToSummaryDTO(result.Summary),
		Days:    ToDaySummaryDTOs(result.Days),
		Records: ToTimeRecordDTOs(result.Records),
	}
}
