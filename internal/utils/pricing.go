package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BookingCostBreakdown provides detailed cost breakdown
type BookingCostBreakdown struct {
	Unit      string // "hour" or "day"
	Units     int64
	Rate      int64
	TotalCost int64
}

// ParseBookingTime parses an RFC 3339 timestamp into UTC
func ParseBookingTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected RFC 3339: %w", value, err)
	}
	return t.UTC(), nil
}

// EffectiveStart returns max(start, now)
func EffectiveStart(start, now time.Time) time.Time {
	if start.Before(now) {
		return now
	}
	return start
}

// CalculateBookingCost prices a window. Windows shorter than 24 hours are
// billed per started hour at the hourly rate; longer windows per started day
// at the daily rate.
func CalculateBookingCost(start, end time.Time, hourlyRate, dailyRate int64) BookingCostBreakdown {
	d := end.Sub(start)
	if d <= 0 {
		return BookingCostBreakdown{Unit: "hour"}
	}
	if d < 24*time.Hour {
		hours := int64(math.Ceil(d.Hours()))
		return BookingCostBreakdown{Unit: "hour", Units: hours, Rate: hourlyRate, TotalCost: hours * hourlyRate}
	}
	days := int64(math.Ceil(d.Hours() / 24))
	return BookingCostBreakdown{Unit: "day", Units: days, Rate: dailyRate, TotalCost: days * dailyRate}
}
