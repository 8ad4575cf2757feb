package backtest

import (
	"sort"
	"time"

	"stockquery/internal/domain"
)

// Engine replays a periodic-investment strategy against already-fetched
// price series. It owns all mutable state for one run: holdings, the
// transaction ledger, the value history, and the running invested total.
// An Engine is single-use and not safe for concurrent use.
type Engine struct {
	series     map[string]domain.Series
	allocation map[string]float64 // symbol → percent (0–100)
	feeRate    float64            // percent

	holdings      map[string]*domain.Holding
	ledger        []domain.InvestmentEvent
	history       []domain.ValueSnapshot
	totalInvested float64
}

// NewEngine creates an Engine over the given series and allocation table.
// Allocation weights are taken as-is: weights summing below 100 leave part
// of each contribution uninvested, weights above 100 over-invest. No
// normalization is applied.
func NewEngine(series map[string]domain.Series, allocation map[string]float64, feeRate float64) *Engine {
	return &Engine{
		series:     series,
		allocation: allocation,
		feeRate:    feeRate,
		holdings:   make(map[string]*domain.Holding),
	}
}

// InvestInitial executes the one-off lump-sum event dated at the run's
// start. It does nothing when amount is not positive. No value snapshot is
// recorded for this event; the amount shows up in the first recurring
// snapshot's invested total.
func (e *Engine) InvestInitial(date time.Time, amount float64) {
	if amount <= 0 {
		return
	}
	e.invest(date, domain.EventInitial, amount)
}

// InvestRegular executes one scheduled contribution and records the value
// snapshot for that date.
func (e *Engine) InvestRegular(date time.Time, amount float64) {
	e.invest(date, domain.EventRegular, amount)
	e.history = append(e.history, domain.ValueSnapshot{
		Date:     date,
		Value:    e.valueOn(date),
		Invested: e.totalInvested,
	})
}

// invest creates one ledger event. Per symbol, the trade date is the first
// bar on or after the event date; symbols with no such bar, no series at
// all, or a non-positive allocation get no fill. The event is appended and
// the nominal amount counted into the invested total even when every
// symbol was skipped.
func (e *Engine) invest(date time.Time, kind domain.EventKind, amount float64) {
	event := domain.InvestmentEvent{
		Date:   date,
		Kind:   kind,
		Amount: amount,
		Fills:  make(map[string]domain.Fill),
	}

	for symbol, series := range e.series {
		pct := e.allocation[symbol] / 100.0
		if pct <= 0 {
			continue
		}
		bar, ok := series.BarOnOrAfter(date)
		if !ok {
			continue // past the end of this symbol's data
		}

		investAmount := amount * pct
		fee := investAmount * (e.feeRate / 100.0)
		shares := (investAmount - fee) / bar.Close

		h := e.holdings[symbol]
		if h == nil {
			h = &domain.Holding{Symbol: symbol}
			e.holdings[symbol] = h
		}
		h.Shares += shares
		h.CostBasis += investAmount

		event.Fills[symbol] = domain.Fill{
			Price:  bar.Close,
			Shares: shares,
			Amount: investAmount,
			Fee:    fee,
		}
	}

	e.ledger = append(e.ledger, event)
	e.totalInvested += amount
}

// valueOn values every holding at the first bar on or after date. Holdings
// whose series has no bar there are omitted from the sum.
func (e *Engine) valueOn(date time.Time) float64 {
	var total float64
	for symbol, h := range e.holdings {
		series, ok := e.series[symbol]
		if !ok {
			continue
		}
		bar, ok := series.BarOnOrAfter(date)
		if !ok {
			continue
		}
		total += h.Shares * bar.Close
	}
	return total
}

// Holdings returns the terminal holdings sorted by symbol.
func (e *Engine) Holdings() []domain.Holding {
	out := make([]domain.Holding, 0, len(e.holdings))
	for _, h := range e.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Ledger returns the transaction ledger in execution order.
func (e *Engine) Ledger() []domain.InvestmentEvent { return e.ledger }

// History returns the per-contribution value snapshots in date order.
func (e *Engine) History() []domain.ValueSnapshot { return e.history }

// TotalInvested returns the cumulative nominal amount contributed.
func (e *Engine) TotalInvested() float64 { return e.totalInvested }
