package utils

import (
	"math"
	"time"
)

// Day count conventions.
const (
	Act360  = "ACT/360"
	Act365F = "ACT/365F"
	Bus252  = "BUS/252"
)

// BusinessDaysPerYear is the annualisation base of Brazilian rates.
const BusinessDaysPerYear = 252

// YearFraction converts a day count into years using the specified convention.
// For BUS/252 days is a business-day count; for the ACT conventions it is a
// calendar-day count. Unknown conventions fall back to ACT/365F.
func YearFraction(days int, convention string) float64 {
	switch convention {
	case Bus252:
		return float64(days) / BusinessDaysPerYear
	case Act360:
		return float64(days) / 360.0
	default:
		return float64(days) / 365.0
	}
}

// Days returns the calendar-day difference end - start, ignoring clock times.
func Days(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(e.Sub(s).Hours() / 24))
}
