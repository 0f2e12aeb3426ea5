package worktime

import (
	"math"
	"sort"
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
	"github.com/yukikurage/timecard-api/internal/timezone"
)

// DefaultDailyHourLimit applies when Options carries no usable limit.
const DefaultDailyHourLimit = 8.0

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Options configures an aggregation.
type Options struct {
	// HourlyRate is used for records whose job has no entry in RateByJob.
	HourlyRate float64
	// RateByJob maps job ids to hourly rates for multi-job aggregation.
	RateByJob      map[string]float64
	DailyHourLimit float64
	Location       *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return timezone.Business()
	}
	return o.Location
}

func (o Options) rateFor(r *models.TimeRecord) float64 {
	if rate, ok := o.RateByJob[r.JobID]; ok {
		return rate
	}
	return o.HourlyRate
}

func (o Options) limitMinutes() int {
	limit := o.DailyHourLimit
	if limit <= 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		limit = DefaultDailyHourLimit
	}
	return int(math.Round(limit * 60))
}

// DaySummary is one calendar day inside a Summary.
type DaySummary struct {
	Date            string  `json:"date"`
	Minutes         int     `json:"minutes"`
	Earnings        float64 `json:"earnings"`
	OvertimeMinutes int     `json:"overtime_minutes"`
	RecordCount     int     `json:"record_count"`
}

// Summary aggregates the closed records whose clock-in falls inside Period.
type Summary struct {
	Period          Range        `json:"period"`
	TotalMinutes    int          `json:"total_minutes"`
	TotalHours      float64      `json:"total_hours"`
	TotalEarnings   float64      `json:"total_earnings"`
	OvertimeMinutes int          `json:"overtime_minutes"`
	RecordCount     int          `json:"record_count"`
	Days            []DaySummary `json:"days"`
}

// WorkDays is the number of distinct dates with at least one closed record.
func (s Summary) WorkDays() int {
	return len(s.Days)
}

// AverageHoursPerDay divides total hours by WorkDays, or 0 with no work days.
func (s Summary) AverageHoursPerDay() float64 {
	if len(s.Days) == 0 {
		return 0
	}
	return s.TotalHours / float64(len(s.Days))
}

// Summarize buckets the eligible records of period by the calendar date of
// their clock-in. A shift that crosses midnight or a period boundary belongs
// wholly to the bucket of its clock-in.
func Summarize(records []models.TimeRecord, opts Options, period Range) Summary {
	loc := opts.location()
	limit := opts.limitMinutes()

	byDate := make(map[string]*DaySummary)
	for i := range records {
		r := &records[i]
		if r.ClockOut == nil || !period.Contains(r.ClockIn) {
			continue
		}
		key := timezone.DateOf(r.ClockIn, loc)
		day, ok := byDate[key]
		if !ok {
			day = &DaySummary{Date: key}
			byDate[key] = day
		}
		day.Minutes += MinutesWorked(r)
		day.Earnings += Earnings(r, opts.rateFor(r))
		day.RecordCount++
	}

	s := Summary{Period: period, Days: make([]DaySummary, 0, len(byDate))}
	for _, day := range byDate {
		if day.Minutes > limit {
			day.OvertimeMinutes = day.Minutes - limit
		}
		s.Days = append(s.Days, *day)
	}
	sort.Slice(s.Days, func(i, j int) bool { return s.Days[i].Date < s.Days[j].Date })

	// Totals are summed in date order.
	for _, day := range s.Days {
		s.TotalMinutes += day.Minutes
		s.TotalEarnings += day.Earnings
		s.OvertimeMinutes += day.OvertimeMinutes
		s.RecordCount += day.RecordCount
	}
	s.TotalHours = float64(s.TotalMinutes) / 60

	return s
}

// Windows holds the three rolling periods relative to an instant.
type Windows struct {
	Today Range `json:"today"`
	Week  Range `json:"week"`
	Month Range `json:"month"`
}

// WindowsAt computes today, the Monday-based week and the calendar month
// containing now, in loc.
func WindowsAt(now time.Time, loc *time.Location) Windows {
	today := timezone.StartOfDay(now, loc)
	week := timezone.StartOfWeek(now, loc)
	month := timezone.StartOfMonth(now, loc)
	return Windows{
		Today: Range{Start: today, End: today.AddDate(0, 0, 1)},
		Week:  Range{Start: week, End: week.AddDate(0, 0, 7)},
		Month: Range{Start: month, End: month.AddDate(0, 1, 0)},
	}
}

// MonthRange returns the calendar month [first day, first day of next month).
func MonthRange(year int, month time.Month, loc *time.Location) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// Statistics is the dashboard view over a user's records.
type Statistics struct {
	Today              Summary `json:"today"`
	Week               Summary `json:"week"`
	Month              Summary `json:"month"`
	AverageHoursPerDay float64 `json:"average_hours_per_day"`
	TotalRecords       int     `json:"total_records"`
}

// Compute summarizes records over the windows containing now. Open records
// are excluded everywhere, including TotalRecords.
func Compute(records []models.TimeRecord, opts Options, now time.Time) Statistics {
	w := WindowsAt(now, opts.location())

	stats := Statistics{
		Today: Summarize(records, opts, w.Today),
		Week:  Summarize(records, opts, w.Week),
		Month: Summarize(records, opts, w.Month),
	}
	stats.AverageHoursPerDay = stats.Month.AverageHoursPerDay()
	for i := range records {
		if records[i].ClockOut != nil {
			stats.TotalRecords++
		}
	}
	return stats
}

// MonthSummary summarizes the calendar month year/month in the options' zone.
func MonthSummary(records []models.TimeRecord, opts Options, year int, month time.Month) Summary {
	return Summarize(records, opts, MonthRange(year, month, opts.location()))
}

// DailyBreakdown returns one entry per calendar day of period, including days
// without work, in ascending date order.
func DailyBreakdown(records []models.TimeRecord, opts Options, period Range) []DaySummary {
	s := Summarize(records, opts, period)
	worked := make(map[string]DaySummary, len(s.Days))
	for _, d := range s.Days {
		worked[d.Date] = d
	}

	loc := opts.location()
	var days []DaySummary
	for day := timezone.StartOfDay(period.Start, loc); day.Before(period.End); day = day.AddDate(0, 0, 1) {
		key := timezone.DateOf(day, loc)
		if d, ok := worked[key]; ok {
			days = append(days, d)
			continue
		}
		days = append(days, DaySummary{Date: key})
	}
	return days
}
