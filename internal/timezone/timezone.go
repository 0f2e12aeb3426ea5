package timezone

import (
	"sync"
	"time"
)

const DefaultTimezone = "Asia/Taipei"

const DateLayout = "2006-01-02"

var (
	mu       sync.RWMutex
	business = mustLoad(DefaultTimezone)
)

func mustLoad(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Location resolves tz, falling back to the default business zone.
func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return mustLoad(DefaultTimezone)
}

// SetBusiness pins the zone used for calendar dates and period windows.
func SetBusiness(tz string) *time.Location {
	loc := Location(tz)
	mu.Lock()
	business = loc
	mu.Unlock()
	return loc
}

// Business returns the configured business zone.
func Business() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return business
}

func Now() time.Time {
	return time.Now().In(Business())
}

// DateOf returns the calendar date of t in loc as YYYY-MM-DD.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns Monday 00:00 of the ISO week containing t.
// Sunday belongs to the week that started six days earlier.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth returns 00:00 on the first day of t's month.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// ParseDate parses YYYY-MM-DD as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
