package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSeriesSortsAndDeduplicates(t *testing.T) {
	bars := []Bar{
		{Symbol: "AAPL", Date: day(2023, 1, 3), Close: 125},
		{Symbol: "AAPL", Date: day(2023, 1, 2), Close: 124},
		{Symbol: "AAPL", Date: day(2023, 1, 3), Close: 126}, // later write wins
	}

	s := NewSeries(bars)

	if len(s) != 2 {
		t.Fatalf("len(s) = %d, want 2", len(s))
	}
	if !s[0].Date.Equal(day(2023, 1, 2)) {
		t.Errorf("s[0].Date = %v, want 2023-01-02", s[0].Date)
	}
	if s[1].Close != 126 {
		t.Errorf("s[1].Close = %v, want 126 (last duplicate wins)", s[1].Close)
	}
}

func TestNewSeriesEmpty(t *testing.T) {
	if s := NewSeries(nil); s != nil {
		t.Errorf("NewSeries(nil) = %v, want nil", s)
	}
}

func TestBarOnOrAfter(t *testing.T) {
	s := NewSeries([]Bar{
		{Date: day(2023, 1, 2), Close: 100}, // Monday
		{Date: day(2023, 1, 3), Close: 101},
		{Date: day(2023, 1, 9), Close: 102}, // next Monday
	})

	tests := []struct {
		name      string
		query     time.Time
		wantClose float64
		wantOK    bool
	}{
		{"exact match", day(2023, 1, 3), 101, true},
		{"weekend forward-fills", day(2023, 1, 7), 102, true},
		{"before first bar", day(2023, 1, 1), 100, true},
		{"past last bar", day(2023, 1, 10), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, ok := s.BarOnOrAfter(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && bar.Close != tt.wantClose {
				t.Errorf("bar.Close = %v, want %v", bar.Close, tt.wantClose)
			}
		})
	}
}

func TestLast(t *testing.T) {
	var empty Series
	if _, ok := empty.Last(); ok {
		t.Error("empty.Last() ok = true, want false")
	}

	s := NewSeries([]Bar{
		{Date: day(2023, 1, 2), Close: 100},
		{Date: day(2023, 1, 3), Close: 101},
	})
	last, ok := s.Last()
	if !ok {
		t.Fatal("Last() ok = false, want true")
	}
	if last.Close != 101 {
		t.Errorf("last.Close = %v, want 101", last.Close)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
	}{
		{"monthly", Monthly},
		{"quarterly", Quarterly},
		{"yearly", Yearly},
		{"QUARTERLY", Quarterly},
		{" yearly ", Yearly},
		{"weekly", Monthly}, // unknown falls back
		{"", Monthly},
	}
	for _, tt := range tests {
		if got := ParseFrequency(tt.in); got != tt.want {
			t.Errorf("ParseFrequency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
