package compliance

import (
	"time"

	"contractpulse/pkg/contracts/domain"
)

// DateLayout is the reference date label format (dd/mm/yyyy)
const DateLayout = "02/01/2006"

// NewDateFactor computes how much of the calendar month of ref has elapsed.
// Only the calendar date of ref matters.
func NewDateFactor(ref time.Time) domain.DateFactor {
	day := ref.Day()
	total := DaysInMonth(ref.Year(), ref.Month())

	factor := float64(day) / float64(total)
	if factor > 1 {
		factor = 1
	}
	return domain.DateFactor{
		CurrentDay:    day,
		TotalDays:     total,
		Factor:        factor,
		FormattedDate: ref.Format(DateLayout),
	}
}

// DaysInMonth returns the number of days of month m in year y
func DaysInMonth(y int, m time.Month) int {
	// Day 0 of the next month normalizes to the last day of m
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
