package provider

import (
	"context"
	"log/slog"
	"time"

	"stockquery/internal/domain"
	"stockquery/internal/store"
	"stockquery/internal/util"
)

// Compile-time interface check.
var _ Provider = (*CachedProvider)(nil)

// CachedProvider wraps a Provider with a read-through bar cache, remote
// retries, and a request rate limit. Cache writes are best effort: a
// failed write is logged and the fetched bars are still returned.
type CachedProvider struct {
	remote  Provider
	cache   store.BarStore
	market  func(symbol string) domain.Market
	retries int
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewCachedProvider creates a CachedProvider over remote. The market
// function maps each symbol to the cache directory/partition its bars live
// under; ratePerMin bounds remote calls.
func NewCachedProvider(remote Provider, cache store.BarStore, market func(string) domain.Market, ratePerMin int, log *slog.Logger) *CachedProvider {
	return &CachedProvider{
		remote:  remote,
		cache:   cache,
		market:  market,
		retries: 3,
		limiter: util.NewRateLimiter(ratePerMin),
		log:     log.With("provider", remote.Name()),
	}
}

// Name returns the wrapped provider's identifier.
func (p *CachedProvider) Name() string { return p.remote.Name() }

// FetchDailyBars serves the range from the cache when the cached bars span
// it, and otherwise fetches remotely, writes through, and returns the
// fresh bars.
func (p *CachedProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	market := p.market(symbol)

	cached, err := p.cache.ReadBars(ctx, market, symbol, start, end)
	if err != nil {
		p.log.Warn("reading bar cache", "symbol", symbol, "error", err)
	} else if coversRange(cached, start, end) {
		return cached, nil
	}

	var bars []domain.Bar
	err = util.Retry(ctx, p.retries, 500*time.Millisecond, func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		var ferr error
		bars, ferr = p.remote.FetchDailyBars(ctx, symbol, start, end)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		if werr := p.cache.WriteBars(ctx, market, bars); werr != nil {
			p.log.Warn("writing bar cache", "symbol", symbol, "error", werr)
		}
	}
	return bars, nil
}

// ResolveName delegates to the remote provider; names are not cached.
func (p *CachedProvider) ResolveName(ctx context.Context, symbol string) (string, error) {
	return p.remote.ResolveName(ctx, symbol)
}

// coversRange reports whether cached bars plausibly cover [start, end]:
// the first bar falls within a week of the start and the last within a
// week of the end. Daily data never lands exactly on weekend boundaries,
// so a small slack is required.
func coversRange(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	const slack = 7 * 24 * time.Hour
	if bars[0].Date.Sub(start) > slack {
		return false
	}
	return end.Sub(bars[len(bars)-1].Date) <= slack
}
