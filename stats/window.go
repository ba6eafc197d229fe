// Package stats computes the clinic's read-side aggregates. Every function is
// pure: it only scans the slices it is given.
package stats

import (
	"fmt"
	"time"
)

const endOfDayNanos = 999 * int(time.Millisecond)

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DayWindow spans 00:00:00.000 to 23:59:59.999 of day in day's location.
func DayWindow(day time.Time) Window {
	y, m, d := day.Date()
	loc := day.Location()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, endOfDayNanos, loc),
	}
}

// RangeWindow spans from the start of from's day to the end of to's day.
func RangeWindow(from, to time.Time) Window {
	return Window{Start: DayWindow(from).Start, End: DayWindow(to).End}
}

// MonthWindow spans the first to the last day of a calendar month.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return RangeWindow(first, last)
}

func YearWindow(year int, loc *time.Location) Window {
	return RangeWindow(
		time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
	)
}

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return p, nil
	case "":
		return PeriodDaily, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Window returns the period containing now.
func (p Period) Window(now time.Time) Window {
	switch p {
	case PeriodMonthly:
		return MonthWindow(now.Year(), now.Month(), now.Location())
	case PeriodYearly:
		return YearWindow(now.Year(), now.Location())
	default:
		return DayWindow(now)
	}
}
