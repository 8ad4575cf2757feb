// Package provider fetches daily price series and display names from
// external market-data sources. Symbols are routed to a source by market,
// detected from the symbol's shape, and results can be cached through a
// store.BarStore. All per-symbol failures are absorbed here: callers see
// either bars or an empty series, never a fatal error for one symbol.
package provider

import (
	"context"
	"regexp"
	"time"

	"stockquery/internal/domain"
)

// Provider supplies daily bars and display names for one market-data
// source.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// FetchDailyBars returns ascending-by-date daily bars for the symbol
	// within [start, end]. A symbol with no data in range yields an empty
	// slice, not an error; errors are reserved for transport failures.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ResolveName returns the symbol's display name. Best effort: an error
	// means "name unknown" and is never fatal to a request.
	ResolveName(ctx context.Context, symbol string) (string, error)
}

var (
	krSymbolPattern = regexp.MustCompile(`^[0-9A-Z]{6}$|^[0-9]+$`)
	usSymbolPattern = regexp.MustCompile(`^[A-Z]+(\.[A-Z]+)?$`)
)

// DetectMarket guesses a symbol's market from its shape: all-digit or
// 6-character alphanumeric codes are Korean listings, plain uppercase
// tickers are US listings, anything else is routed to the global fallback.
func DetectMarket(symbol string) domain.Market {
	switch {
	case krSymbolPattern.MatchString(symbol):
		return domain.MarketKR
	case usSymbolPattern.MatchString(symbol):
		return domain.MarketUS
	default:
		return domain.MarketGlobal
	}
}

// Router dispatches each symbol to the provider registered for its
// detected market, falling back to a default provider for markets without
// a dedicated source.
type Router struct {
	providers map[domain.Market]Provider
	fallback  Provider
}

// NewRouter creates a Router with the given fallback provider.
func NewRouter(fallback Provider) *Router {
	return &Router{
		providers: make(map[domain.Market]Provider),
		fallback:  fallback,
	}
}

// Register assigns a provider to a market.
func (r *Router) Register(market domain.Market, p Provider) {
	r.providers[market] = p
}

// For returns the provider responsible for the symbol along with the
// detected market.
func (r *Router) For(symbol string) (Provider, domain.Market) {
	market := DetectMarket(symbol)
	if p, ok := r.providers[market]; ok {
		return p, market
	}
	return r.fallback, market
}

// Name identifies the router in logs.
func (r *Router) Name() string { return "router" }

// FetchDailyBars routes the fetch to the symbol's provider.
func (r *Router) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	p, _ := r.For(symbol)
	return p.FetchDailyBars(ctx, symbol, start, end)
}

// ResolveName routes the name lookup to the symbol's provider.
func (r *Router) ResolveName(ctx context.Context, symbol string) (string, error) {
	p, _ := r.For(symbol)
	return p.ResolveName(ctx, symbol)
}
