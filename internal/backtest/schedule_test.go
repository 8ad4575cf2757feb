package backtest

import (
	"testing"
	"time"

	"stockquery/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInvestmentDatesMonthly(t *testing.T) {
	dates := InvestmentDates(day(2023, 1, 1), day(2023, 6, 1), domain.Monthly)

	if len(dates) != 6 {
		t.Fatalf("len(dates) = %d, want 6", len(dates))
	}
	if !dates[0].Equal(day(2023, 1, 1)) {
		t.Errorf("dates[0] = %v, want 2023-01-01", dates[0])
	}
	if !dates[5].Equal(day(2023, 6, 1)) {
		t.Errorf("dates[5] = %v, want 2023-06-01", dates[5])
	}
	for _, d := range dates {
		if d.Day() != 1 {
			t.Errorf("date %v is not the first of a month", d)
		}
	}
}

func TestInvestmentDatesMidMonthStart(t *testing.T) {
	// Starting mid-month, the first contribution lands on the next
	// first-of-month inside the range.
	dates := InvestmentDates(day(2023, 1, 15), day(2023, 4, 1), domain.Monthly)

	want := []time.Time{day(2023, 2, 1), day(2023, 3, 1), day(2023, 4, 1)}
	if len(dates) != len(want) {
		t.Fatalf("len(dates) = %d, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestInvestmentDatesQuarterly(t *testing.T) {
	dates := InvestmentDates(day(2023, 2, 10), day(2024, 1, 15), domain.Quarterly)

	want := []time.Time{day(2023, 4, 1), day(2023, 7, 1), day(2023, 10, 1), day(2024, 1, 1)}
	if len(dates) != len(want) {
		t.Fatalf("len(dates) = %d, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestInvestmentDatesYearly(t *testing.T) {
	dates := InvestmentDates(day(2020, 1, 1), day(2023, 12, 31), domain.Yearly)

	want := []time.Time{day(2020, 1, 1), day(2021, 1, 1), day(2022, 1, 1), day(2023, 1, 1)}
	if len(dates) != len(want) {
		t.Fatalf("len(dates) = %d, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestInvestmentDatesEndBeforeStart(t *testing.T) {
	if dates := InvestmentDates(day(2023, 6, 1), day(2023, 1, 1), domain.Monthly); dates != nil {
		t.Errorf("dates = %v, want nil", dates)
	}
}

func TestInvestmentDatesBoundsInclusive(t *testing.T) {
	dates := InvestmentDates(day(2023, 3, 1), day(2023, 3, 1), domain.Monthly)
	if len(dates) != 1 || !dates[0].Equal(day(2023, 3, 1)) {
		t.Errorf("dates = %v, want exactly [2023-03-01]", dates)
	}
}

func TestUnknownFrequencyBehavesAsMonthly(t *testing.T) {
	got := InvestmentDates(day(2023, 1, 1), day(2023, 12, 31), domain.Frequency("weekly"))
	want := InvestmentDates(day(2023, 1, 1), day(2023, 12, 31), domain.Monthly)

	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
