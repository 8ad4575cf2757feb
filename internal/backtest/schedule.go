// Package backtest implements the Dollar-Cost-Averaging simulation engine:
// contribution scheduling, event execution against historical price series,
// and the derived performance metrics.
package backtest

import (
	"time"

	"stockquery/internal/domain"
)

// InvestmentDates returns the ordered, duplicate-free contribution dates
// for the given frequency within [start, end] inclusive: the first day of
// every month, of every quarter (Jan/Apr/Jul/Oct), or of every year.
// Unknown frequencies behave as monthly. The generator is pure and never
// consults price data.
func InvestmentDates(start, end time.Time, freq domain.Frequency) []time.Time {
	if end.Before(start) {
		return nil
	}

	step := 1 // months per period
	switch freq {
	case domain.Quarterly:
		step = 3
	case domain.Yearly:
		step = 12
	}

	d := periodStart(start, step)
	if d.Before(start) {
		d = d.AddDate(0, step, 0)
	}

	var dates []time.Time
	for !d.After(end) {
		dates = append(dates, d)
		d = d.AddDate(0, step, 0)
	}
	return dates
}

// periodStart returns the first day of the period containing t: the first
// of the month, of the calendar quarter, or of the year.
func periodStart(t time.Time, step int) time.Time {
	month := t.Month()
	switch step {
	case 3:
		month = time.Month((int(month)-1)/3*3 + 1)
	case 12:
		month = time.January
	}
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}
