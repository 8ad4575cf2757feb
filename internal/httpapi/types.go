// Package httpapi provides the HTTP REST API for the stockquery service:
// the DCA backtest endpoint and the historical price query used by the
// frontend charts.
package httpapi

import (
	"time"

	"stockquery/internal/backtest"
	"stockquery/internal/domain"
)

// DCARequest is the JSON body of POST /api/backtest/dca. Optional numeric
// fields are pointers so an explicit zero (e.g. fee_rate: 0) is
// distinguishable from an absent field, which takes the configured
// default. tax_rate is accepted and validated but not applied to any
// computed figure.
type DCARequest struct {
	Symbols             []string           `json:"symbols"`
	Allocation          map[string]float64 `json:"allocation"`
	StartDate           string             `json:"start_date"`
	EndDate             string             `json:"end_date,omitempty"`
	InitialAmount       *float64           `json:"initial_amount,omitempty"`
	InvestmentAmount    *float64           `json:"investment_amount,omitempty"`
	InvestmentFrequency string             `json:"investment_frequency,omitempty"`
	FeeRate             *float64           `json:"fee_rate,omitempty"`
	TaxRate             *float64           `json:"tax_rate,omitempty"`
}

// InvestmentPeriodJSON breaks the run's span into calendar units.
type InvestmentPeriodJSON struct {
	Days   int     `json:"days"`
	Years  float64 `json:"years"`
	Months float64 `json:"months"`
}

// SummaryJSON is the aggregate outcome block of a backtest response.
type SummaryJSON struct {
	StartDate         string               `json:"start_date"`
	EndDate           string               `json:"end_date"`
	InvestmentPeriod  InvestmentPeriodJSON `json:"investment_period"`
	TotalInvested     float64              `json:"total_invested"`
	FinalValue        float64              `json:"final_value"`
	TotalProfit       float64              `json:"total_profit"`
	TotalProfitPct    float64              `json:"total_profit_pct"`
	CAGR              float64              `json:"cagr"`
	TransactionsCount int                  `json:"transactions_count"`
}

// PositionJSON is one row of the portfolio breakdown.
type PositionJSON struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Shares        float64 `json:"shares"`
	CostBasis     float64 `json:"cost_basis"`
	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	Weight        float64 `json:"weight"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// TransactionJSON is one ledger entry.
type TransactionJSON struct {
	Date    string                 `json:"date"`
	Type    string                 `json:"type"`
	Amount  float64                `json:"amount"`
	Details map[string]domain.Fill `json:"details"`
}

// SnapshotJSON is one value-history point.
type SnapshotJSON struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Invested float64 `json:"invested"`
}

// DCAData is the data block of a successful backtest response.
type DCAData struct {
	Summary      SummaryJSON       `json:"summary"`
	Portfolio    []PositionJSON    `json:"portfolio"`
	Transactions []TransactionJSON `json:"transactions"`
	ValueHistory []SnapshotJSON    `json:"value_history"`
}

// DCAResponse is the top-level backtest response envelope.
type DCAResponse struct {
	Status string  `json:"status"`
	Data   DCAData `json:"data"`
}

// PricesData holds one symbol's series for the historical-prices endpoint.
type PricesData struct {
	Dates  []string  `json:"dates"`
	Open   []float64 `json:"open,omitempty"`
	High   []float64 `json:"high,omitempty"`
	Low    []float64 `json:"low,omitempty"`
	Close  []float64 `json:"close"`
	Volume []int64   `json:"volume,omitempty"`
}

// TimeframeJSON describes the span a symbol's returned series covers.
type TimeframeJSON struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Days       int    `json:"days"`
	DataPoints int    `json:"data_points"`
}

// SymbolPricesJSON is the per-symbol entry of the historical-prices
// response.
type SymbolPricesJSON struct {
	Name      string        `json:"name,omitempty"`
	Market    string        `json:"market"`
	Data      PricesData    `json:"data"`
	Timeframe TimeframeJSON `json:"timeframe"`
}

// PricesResponse is the top-level historical-prices response envelope.
type PricesResponse struct {
	Status           string                      `json:"status"`
	Data             map[string]SymbolPricesJSON `json:"data"`
	SymbolsRequested int                         `json:"symbols_requested"`
	SymbolsFound     int                         `json:"symbols_found"`
}

const dateLayout = "2006-01-02"

// ConvertResult converts a backtest.Result to the response data block.
func ConvertResult(res *backtest.Result) DCAData {
	s := res.Summary
	data := DCAData{
		Summary: SummaryJSON{
			StartDate: s.StartDate.Format(dateLayout),
			EndDate:   s.EndDate.Format(dateLayout),
			InvestmentPeriod: InvestmentPeriodJSON{
				Days:   s.Days,
				Years:  s.Years,
				Months: s.Months,
			},
			TotalInvested:     s.TotalInvested,
			FinalValue:        s.FinalValue,
			TotalProfit:       s.TotalProfit,
			TotalProfitPct:    s.TotalProfitPct,
			CAGR:              s.CAGR,
			TransactionsCount: s.TransactionsCount,
		},
		Portfolio:    make([]PositionJSON, 0, len(res.Portfolio)),
		Transactions: make([]TransactionJSON, 0, len(res.Transactions)),
		ValueHistory: make([]SnapshotJSON, 0, len(res.ValueHistory)),
	}

	for _, p := range res.Portfolio {
		data.Portfolio = append(data.Portfolio, PositionJSON{
			Symbol:        p.Symbol,
			Name:          p.Name,
			Shares:        p.Shares,
			CostBasis:     p.CostBasis,
			CurrentPrice:  p.CurrentPrice,
			CurrentValue:  p.CurrentValue,
			Weight:        p.Weight,
			ProfitLoss:    p.ProfitLoss,
			ProfitLossPct: p.ProfitLossPct,
		})
	}
	for _, tx := range res.Transactions {
		data.Transactions = append(data.Transactions, TransactionJSON{
			Date:    tx.Date.Format(dateLayout),
			Type:    string(tx.Kind),
			Amount:  tx.Amount,
			Details: tx.Fills,
		})
	}
	for _, vs := range res.ValueHistory {
		data.ValueHistory = append(data.ValueHistory, SnapshotJSON{
			Date:     vs.Date.Format(dateLayout),
			Value:    vs.Value,
			Invested: vs.Invested,
		})
	}
	return data
}

// convertBars converts a series to the historical-prices arrays.
func convertBars(bars []domain.Bar) PricesData {
	data := PricesData{
		Dates:  make([]string, 0, len(bars)),
		Open:   make([]float64, 0, len(bars)),
		High:   make([]float64, 0, len(bars)),
		Low:    make([]float64, 0, len(bars)),
		Close:  make([]float64, 0, len(bars)),
		Volume: make([]int64, 0, len(bars)),
	}
	for _, b := range bars {
		data.Dates = append(data.Dates, b.Date.Format(dateLayout))
		data.Open = append(data.Open, b.Open)
		data.High = append(data.High, b.High)
		data.Low = append(data.Low, b.Low)
		data.Close = append(data.Close, b.Close)
		data.Volume = append(data.Volume, b.Volume)
	}
	return data
}

// resampleMonthly keeps the last bar of each calendar month, mirroring a
// month-end resample of the daily series.
func resampleMonthly(bars domain.Series) domain.Series {
	if len(bars) == 0 {
		return bars
	}
	var out domain.Series
	for i, b := range bars {
		if i+1 < len(bars) && sameMonth(b.Date, bars[i+1].Date) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
