package backtest

import (
	"testing"

	"stockquery/internal/domain"
)

func TestBuildPositions(t *testing.T) {
	series := map[string]domain.Series{
		"AAPL": flatSeries("AAPL", day(2023, 1, 1), day(2023, 1, 31), 100),
		"MSFT": flatSeries("MSFT", day(2023, 1, 1), day(2023, 1, 31), 200),
	}
	holdings := []domain.Holding{
		{Symbol: "AAPL", Shares: 10, CostBasis: 800},   // value 1000
		{Symbol: "MSFT", Shares: 15, CostBasis: 3500},  // value 3000
	}

	positions := BuildPositions(holdings, series)

	if len(positions) != 2 {
		t.Fatalf("len(positions) = %d, want 2", len(positions))
	}
	// Sorted by current value descending.
	if positions[0].Symbol != "MSFT" {
		t.Errorf("positions[0].Symbol = %q, want MSFT", positions[0].Symbol)
	}

	msft := positions[0]
	if !approx(msft.CurrentValue, 3000) {
		t.Errorf("msft.CurrentValue = %v, want 3000", msft.CurrentValue)
	}
	if !approx(msft.Weight, 75) { // 3000 of 4000
		t.Errorf("msft.Weight = %v, want 75", msft.Weight)
	}
	if !approx(msft.ProfitLoss, -500) {
		t.Errorf("msft.ProfitLoss = %v, want -500", msft.ProfitLoss)
	}

	aapl := positions[1]
	if !approx(aapl.ProfitLossPct, 25) { // 1000/800 - 1
		t.Errorf("aapl.ProfitLossPct = %v, want 25", aapl.ProfitLossPct)
	}
}

func TestBuildPositionsSkipsMissingSeries(t *testing.T) {
	holdings := []domain.Holding{{Symbol: "GONE", Shares: 10, CostBasis: 100}}

	positions := BuildPositions(holdings, map[string]domain.Series{})
	if len(positions) != 0 {
		t.Errorf("len(positions) = %d, want 0", len(positions))
	}
}

func TestBuildPositionsZeroCostBasis(t *testing.T) {
	series := map[string]domain.Series{
		"AAPL": flatSeries("AAPL", day(2023, 1, 1), day(2023, 1, 31), 100),
	}
	holdings := []domain.Holding{{Symbol: "AAPL", Shares: 0, CostBasis: 0}}

	positions := BuildPositions(holdings, series)
	if len(positions) != 1 {
		t.Fatalf("len(positions) = %d, want 1", len(positions))
	}
	if positions[0].ProfitLossPct != 0 {
		t.Errorf("ProfitLossPct = %v, want 0 on zero cost basis", positions[0].ProfitLossPct)
	}
	if positions[0].Weight != 0 {
		t.Errorf("Weight = %v, want 0 on zero portfolio value", positions[0].Weight)
	}
}

func TestBuildSummary(t *testing.T) {
	s := BuildSummary(day(2020, 1, 1), day(2023, 1, 1), 100000, 150000, 37)

	if s.Days != 1096 {
		t.Errorf("Days = %d, want 1096", s.Days)
	}
	if !approx(s.TotalProfit, 50000) {
		t.Errorf("TotalProfit = %v, want 50000", s.TotalProfit)
	}
	if !approx(s.TotalProfitPct, 50) {
		t.Errorf("TotalProfitPct = %v, want 50", s.TotalProfitPct)
	}
	if s.CAGR <= 0 || s.CAGR >= 50 {
		t.Errorf("CAGR = %v, want a positive annualized rate below the total return", s.CAGR)
	}
	if s.TransactionsCount != 37 {
		t.Errorf("TransactionsCount = %d, want 37", s.TransactionsCount)
	}
}

func TestBuildSummaryZeroInvested(t *testing.T) {
	s := BuildSummary(day(2020, 1, 1), day(2023, 1, 1), 0, 0, 0)

	if s.TotalProfitPct != 0 {
		t.Errorf("TotalProfitPct = %v, want 0 on zero invested", s.TotalProfitPct)
	}
	if s.CAGR != 0 {
		t.Errorf("CAGR = %v, want 0 on zero invested", s.CAGR)
	}
}

func TestBuildSummaryZeroSpan(t *testing.T) {
	s := BuildSummary(day(2023, 1, 1), day(2023, 1, 1), 100000, 120000, 1)

	if s.CAGR != 0 {
		t.Errorf("CAGR = %v, want 0 on zero elapsed years", s.CAGR)
	}
	if !approx(s.TotalProfitPct, 20) {
		t.Errorf("TotalProfitPct = %v, want 20", s.TotalProfitPct)
	}
}
