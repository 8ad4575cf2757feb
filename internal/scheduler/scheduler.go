// Package scheduler runs the periodic bar-cache warmup so interactive
// backtests over recently watched symbols hit the cache instead of the
// upstream providers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"stockquery/internal/provider"
)

// Scheduler manages the cron-driven cache warmup.
type Scheduler struct {
	cron     *cron.Cron
	provider provider.Provider
	symbols  []string
	lookback int // days of history to refresh
	log      *slog.Logger
}

// New creates a Scheduler that refreshes the given symbols through the
// provider (typically the cached provider, so fetches are written through
// to the bar store).
func New(p provider.Provider, symbols []string, lookbackDays int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		provider: p,
		symbols:  symbols,
		lookback: lookbackDays,
		log:      log.With("component", "scheduler"),
	}
}

// Register adds the warmup job under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.warmup); err != nil {
		return fmt.Errorf("registering warmup job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "symbols", len(s.symbols))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// warmup refreshes the last lookback days of bars for every configured
// symbol. Per-symbol failures are logged and skipped.
func (s *Scheduler) warmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -s.lookback)

	for _, symbol := range s.symbols {
		bars, err := s.provider.FetchDailyBars(ctx, symbol, start, end)
		if err != nil {
			s.log.Warn("warmup fetch", "symbol", symbol, "error", err)
			continue
		}
		s.log.Debug("warmup refreshed", "symbol", symbol, "bars", len(bars))
	}
	s.log.Info("warmup complete", "symbols", len(s.symbols))
}
