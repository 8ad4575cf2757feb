package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"stockquery/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*YahooProvider)(nil)

// YahooProvider fetches daily bars and display names from Yahoo Finance.
// It is the fallback for symbols no dedicated provider claims.
type YahooProvider struct{}

// NewYahooProvider creates a YahooProvider.
func NewYahooProvider() *YahooProvider { return &YahooProvider{} }

// Name returns the provider identifier.
func (p *YahooProvider) Name() string { return "yahoo" }

// FetchDailyBars iterates the Yahoo chart for the symbol over [start, end].
func (p *YahooProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []domain.Bar
	for iter.Next() {
		b := iter.Bar()
		ts := time.Unix(int64(b.Timestamp), 0).UTC()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePx, _ := b.Close.Float64()
		if closePx == 0 {
			continue // null bar (holiday padding)
		}
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return bars, nil
}

// ResolveName returns the quote's short name.
func (p *YahooProvider) ResolveName(_ context.Context, symbol string) (string, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return "", fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.ShortName == "" {
		return "", fmt.Errorf("no name for %s", symbol)
	}
	return q.ShortName, nil
}
