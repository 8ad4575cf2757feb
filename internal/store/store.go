// Package store provides on-disk caches for daily bar data. Bars are the
// only thing persisted: simulation results are never written anywhere.
package store

import (
	"context"
	"time"

	"stockquery/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bars per market.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market. Existing
	// bars for the same symbol and date are replaced.
	WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error

	// ReadBars returns bars for the symbol within [start, end], ascending
	// by date. A symbol with no cached data yields an empty slice, not an
	// error.
	ReadBars(ctx context.Context, market domain.Market, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols cached for the market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
