// Package worktime turns raw punch records into worked minutes, earnings and
// period summaries. Everything here is pure: callers pass the records, the
// rates and the instant considered "now".
package worktime

import (
	"math"
	"time"

	"github.com/yukikurage/timecard-api/internal/models"
)

// MinutesWorked returns whole minutes between clock-in and clock-out minus the
// break. Open records count as zero and the result is never negative, even for
// a clock-out before the clock-in.
func MinutesWorked(r *models.TimeRecord) int {
	if r.ClockOut == nil {
		return 0
	}
	return netMinutes(r.ClockIn, *r.ClockOut, r.BreakMinutes)
}

// LiveMinutes is MinutesWorked with now standing in for a missing clock-out.
// The provisional value is for display only and must not be persisted.
func LiveMinutes(r *models.TimeRecord, now time.Time) int {
	if r.ClockOut != nil {
		return MinutesWorked(r)
	}
	return netMinutes(r.ClockIn, now, r.BreakMinutes)
}

func netMinutes(in, out time.Time, breakMinutes int) int {
	gross := int(math.Floor(out.Sub(in).Minutes()))
	if breakMinutes < 0 {
		breakMinutes = 0
	}
	net := gross - breakMinutes
	if net < 0 {
		return 0
	}
	return net
}

// ValidRate reports whether rate is a finite positive number.
func ValidRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

// Earnings returns the unrounded pay for r at hourlyRate, or 0 for an invalid rate.
func Earnings(r *models.TimeRecord, hourlyRate float64) float64 {
	if !ValidRate(hourlyRate) {
		return 0
	}
	return float64(MinutesWorked(r)) / 60 * hourlyRate
}

// RoundCurrency rounds an amount to the nearest whole currency unit. Apply it
// only when presenting a final total.
func RoundCurrency(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return math.Round(amount)
}
