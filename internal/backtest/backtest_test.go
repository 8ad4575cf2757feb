package backtest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"stockquery/internal/domain"
)

// stubProvider serves canned series keyed by symbol. Symbols outside the
// map fail the fetch, which the runner must absorb.
type stubProvider struct {
	series map[string]domain.Series
	names  map[string]string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	s, ok := p.series[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	var bars []domain.Bar
	for _, b := range s {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func (p *stubProvider) ResolveName(_ context.Context, symbol string) (string, error) {
	name, ok := p.names[symbol]
	if !ok {
		return "", errors.New("unknown symbol")
	}
	return name, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunFlatPrices(t *testing.T) {
	// Two symbols at constant prices: every figure is exactly computable
	// and the portfolio must come out flat.
	start, end := day(2023, 1, 1), day(2023, 6, 1)
	p := &stubProvider{
		series: map[string]domain.Series{
			"AAA": flatSeries("AAA", start, end, 100),
			"BBB": flatSeries("BBB", start, end, 200),
		},
		names: map[string]string{"AAA": "Alpha Corp", "BBB": "Beta Inc"},
	}

	runner := NewRunner(p, discardLogger())
	result, err := runner.Run(context.Background(), Request{
		Symbols:          []string{"AAA", "BBB"},
		Allocation:       map[string]float64{"AAA": 60, "BBB": 40},
		StartDate:        start,
		EndDate:          end,
		InitialAmount:    1000000,
		InvestmentAmount: 100000,
		Frequency:        domain.Monthly,
		FeeRate:          0,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Initial event plus six monthly contributions (Jan 1 through Jun 1).
	if len(result.Transactions) != 7 {
		t.Fatalf("len(transactions) = %d, want 7", len(result.Transactions))
	}
	if result.Transactions[0].Kind != domain.EventInitial {
		t.Errorf("transactions[0].Kind = %q, want initial", result.Transactions[0].Kind)
	}

	initial := result.Transactions[0].Fills
	if !approx(initial["AAA"].Shares, 6000) { // 600000/100
		t.Errorf("initial AAA shares = %v, want 6000", initial["AAA"].Shares)
	}
	if !approx(initial["BBB"].Shares, 2000) { // 400000/200
		t.Errorf("initial BBB shares = %v, want 2000", initial["BBB"].Shares)
	}
	for _, tx := range result.Transactions[1:] {
		if !approx(tx.Fills["AAA"].Shares, 600) {
			t.Errorf("monthly AAA shares = %v, want 600", tx.Fills["AAA"].Shares)
		}
		if !approx(tx.Fills["BBB"].Shares, 200) {
			t.Errorf("monthly BBB shares = %v, want 200", tx.Fills["BBB"].Shares)
		}
	}

	if !approx(result.Summary.TotalInvested, 1600000) {
		t.Errorf("TotalInvested = %v, want 1600000", result.Summary.TotalInvested)
	}
	if !approx(result.Summary.FinalValue, 1600000) {
		t.Errorf("FinalValue = %v, want 1600000", result.Summary.FinalValue)
	}
	if !approx(result.Summary.TotalProfit, 0) {
		t.Errorf("TotalProfit = %v, want 0", result.Summary.TotalProfit)
	}
	if !approx(result.Summary.TotalProfitPct, 0) {
		t.Errorf("TotalProfitPct = %v, want 0", result.Summary.TotalProfitPct)
	}
	if !approx(result.Summary.CAGR, 0) {
		t.Errorf("CAGR = %v, want 0", result.Summary.CAGR)
	}

	if len(result.ValueHistory) != 6 {
		t.Errorf("len(valueHistory) = %d, want 6", len(result.ValueHistory))
	}

	if len(result.Portfolio) != 2 {
		t.Fatalf("len(portfolio) = %d, want 2", len(result.Portfolio))
	}
	if result.Portfolio[0].Symbol != "AAA" { // larger allocation, larger value
		t.Errorf("portfolio[0].Symbol = %q, want AAA", result.Portfolio[0].Symbol)
	}
	if result.Portfolio[0].Name != "Alpha Corp" {
		t.Errorf("portfolio[0].Name = %q, want Alpha Corp", result.Portfolio[0].Name)
	}
	if !approx(result.Portfolio[0].Weight+result.Portfolio[1].Weight, 100) {
		t.Errorf("weights sum to %v, want 100",
			result.Portfolio[0].Weight+result.Portfolio[1].Weight)
	}
}

func TestRunNoDataAtAll(t *testing.T) {
	runner := NewRunner(&stubProvider{}, discardLogger())

	_, err := runner.Run(context.Background(), Request{
		Symbols:          []string{"AAA", "BBB"},
		Allocation:       map[string]float64{"AAA": 50, "BBB": 50},
		StartDate:        day(2023, 1, 1),
		EndDate:          day(2023, 6, 1),
		InitialAmount:    1000000,
		InvestmentAmount: 100000,
		Frequency:        domain.Monthly,
	})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Run() error = %v, want ErrNoData", err)
	}
}

func TestRunPartialSymbolsSucceed(t *testing.T) {
	start, end := day(2023, 1, 1), day(2023, 3, 1)
	p := &stubProvider{
		series: map[string]domain.Series{
			"AAA": flatSeries("AAA", start, end, 100),
		},
		names: map[string]string{"AAA": "Alpha Corp"},
	}
	runner := NewRunner(p, discardLogger())

	result, err := runner.Run(context.Background(), Request{
		Symbols:          []string{"AAA", "GONE"},
		Allocation:       map[string]float64{"AAA": 50, "GONE": 50},
		StartDate:        start,
		EndDate:          end,
		InitialAmount:    100000,
		InvestmentAmount: 10000,
		Frequency:        domain.Monthly,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Portfolio) != 1 || result.Portfolio[0].Symbol != "AAA" {
		t.Fatalf("portfolio = %+v, want AAA only", result.Portfolio)
	}
	// The failed symbol never fills, but every event's nominal amount still
	// counts toward the invested total.
	if !approx(result.Summary.TotalInvested, 130000) {
		t.Errorf("TotalInvested = %v, want 130000", result.Summary.TotalInvested)
	}
}

func TestRunDefaultsEndDateToToday(t *testing.T) {
	today := time.Now().UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, -2, 0)

	p := &stubProvider{
		series: map[string]domain.Series{
			"AAA": flatSeries("AAA", start, today, 100),
		},
		names: map[string]string{"AAA": "Alpha Corp"},
	}
	runner := NewRunner(p, discardLogger())

	result, err := runner.Run(context.Background(), Request{
		Symbols:          []string{"AAA"},
		Allocation:       map[string]float64{"AAA": 100},
		StartDate:        start,
		InitialAmount:    100000,
		InvestmentAmount: 10000,
		Frequency:        domain.Monthly,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Summary.EndDate.Equal(today) {
		t.Errorf("EndDate = %v, want %v", result.Summary.EndDate, today)
	}
}
