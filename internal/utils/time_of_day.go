package utils

import (
	"fmt"
	"time"
)

const TimeOfDayLayout = "15:04"

// ParseTimeOfDay parses HH:mm and returns minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(TimeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:mm", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidTimeRange reports whether start and end parse and end is after start.
func ValidTimeRange(start, end string) error {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return err
	}
	if e <= s {
		return fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return nil
}
