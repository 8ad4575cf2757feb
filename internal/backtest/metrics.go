package backtest

import (
	"math"
	"sort"
	"time"

	"stockquery/internal/domain"
)

// Position is one row of the final portfolio breakdown.
type Position struct {
	Symbol        string
	Name          string
	Shares        float64
	CostBasis     float64
	CurrentPrice  float64
	CurrentValue  float64
	Weight        float64 // percent of final portfolio value
	ProfitLoss    float64
	ProfitLossPct float64
}

// Summary aggregates the outcome of a run.
type Summary struct {
	StartDate         time.Time
	EndDate           time.Time
	Days              int
	Years             float64
	Months            float64
	TotalInvested     float64
	FinalValue        float64
	TotalProfit       float64
	TotalProfitPct    float64
	CAGR              float64
	TransactionsCount int
}

// BuildPositions values the terminal holdings at each symbol's last known
// close and derives per-symbol weight and profit figures. Holdings whose
// series vanished entirely are skipped. Rows are sorted by current value
// descending.
func BuildPositions(holdings []domain.Holding, series map[string]domain.Series) []Position {
	positions := make([]Position, 0, len(holdings))
	var finalValue float64

	for _, h := range holdings {
		last, ok := series[h.Symbol].Last()
		if !ok {
			continue
		}
		value := h.Shares * last.Close
		finalValue += value
		positions = append(positions, Position{
			Symbol:       h.Symbol,
			Shares:       h.Shares,
			CostBasis:    h.CostBasis,
			CurrentPrice: last.Close,
			CurrentValue: value,
		})
	}

	for i := range positions {
		p := &positions[i]
		if finalValue > 0 {
			p.Weight = p.CurrentValue / finalValue * 100
		}
		p.ProfitLoss = p.CurrentValue - p.CostBasis
		if p.CostBasis > 0 {
			p.ProfitLossPct = (p.CurrentValue/p.CostBasis - 1) * 100
		}
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].CurrentValue > positions[j].CurrentValue
	})
	return positions
}

// BuildSummary computes the aggregate figures for a run. Every division is
// guarded: a zero denominator (invested amount, elapsed years) yields 0
// instead of NaN or a panic, and the fractional power behind CAGR is only
// evaluated when both guards hold.
func BuildSummary(start, end time.Time, totalInvested, finalValue float64, transactions int) Summary {
	days := int(end.Sub(start).Hours() / 24)
	years := float64(days) / 365.25
	months := float64(days) / 30.44

	s := Summary{
		StartDate:         start,
		EndDate:           end,
		Days:              days,
		Years:             years,
		Months:            months,
		TotalInvested:     totalInvested,
		FinalValue:        finalValue,
		TotalProfit:       finalValue - totalInvested,
		TransactionsCount: transactions,
	}
	if totalInvested > 0 {
		s.TotalProfitPct = (finalValue/totalInvested - 1) * 100
		if years > 0 {
			s.CAGR = (math.Pow(finalValue/totalInvested, 1/years) - 1) * 100
		}
	}
	return s
}
