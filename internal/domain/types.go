// Package domain defines the core data types shared across the stockquery
// service: daily price bars, per-run price series, investment events, and
// portfolio state.
package domain

import (
	"strings"
	"time"
)

// Market identifies the market a symbol trades on. It selects the provider
// used to fetch data and the directory bars are cached under.
type Market string

const (
	MarketKR     Market = "kr"
	MarketUS     Market = "us"
	MarketGlobal Market = "global"
)

// Frequency is the cadence of recurring investments.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency maps a user-supplied frequency string to a Frequency.
// Unrecognized values fall back to Monthly; an unknown cadence is treated
// as a default, not an error.
func ParseFrequency(s string) Frequency {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Quarterly:
		return Quarterly
	case Yearly:
		return Yearly
	default:
		return Monthly
	}
}

// Bar is a single daily OHLCV bar. Close is always populated; the other
// fields are best-effort depending on provider coverage.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// EventKind distinguishes the one-off lump sum from scheduled contributions.
type EventKind string

const (
	EventInitial EventKind = "initial"
	EventRegular EventKind = "regular"
)

// Fill records the execution of one symbol's share of an investment event.
type Fill struct {
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`
	Amount float64 `json:"amount"`
	Fee    float64 `json:"fee"`
}

// InvestmentEvent is one entry in the transaction ledger: a dated
// contribution with per-symbol fills. An event may have fills for only a
// subset of the requested symbols; symbols without price data on or after
// the event date are simply absent.
type InvestmentEvent struct {
	Date   time.Time
	Kind   EventKind
	Amount float64
	Fills  map[string]Fill
}

// Holding is the cumulative position in one symbol. Shares only ever grow
// (the engine never sells) and CostBasis accumulates the nominal amount
// invested; fees are absorbed into fewer shares rather than added here.
type Holding struct {
	Symbol    string
	Shares    float64
	CostBasis float64
}

// ValueSnapshot records the portfolio value and cumulative invested amount
// as of one recurring investment date.
type ValueSnapshot struct {
	Date     time.Time
	Value    float64
	Invested float64
}
