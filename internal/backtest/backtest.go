package backtest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stockquery/internal/domain"
	"stockquery/internal/provider"
)

// ErrNoData is returned when none of the requested symbols has any price
// data in range. It is the only failure a backtest surfaces to the caller;
// individual symbols without data are silently omitted instead.
var ErrNoData = errors.New("no price data for any requested symbol")

// Request holds the parameters of one backtest run.
type Request struct {
	Symbols          []string
	Allocation       map[string]float64 // symbol → percent (0–100)
	StartDate        time.Time
	EndDate          time.Time // zero value defaults to today
	InitialAmount    float64
	InvestmentAmount float64
	Frequency        domain.Frequency
	FeeRate          float64 // percent
	TaxRate          float64 // percent; accepted but applied to nothing
}

// Result is the complete outcome of one backtest run.
type Result struct {
	Summary      Summary
	Portfolio    []Position
	Transactions []domain.InvestmentEvent
	ValueHistory []domain.ValueSnapshot
}

// Runner executes backtests against a market-data provider. Each run is
// independent and stateless; nothing is shared between invocations.
type Runner struct {
	provider provider.Provider
	log      *slog.Logger

	fetchParallelism int
}

// NewRunner creates a Runner backed by the given provider.
func NewRunner(p provider.Provider, log *slog.Logger) *Runner {
	return &Runner{
		provider:         p,
		log:              log.With("component", "backtest"),
		fetchParallelism: 8,
	}
}

// Run fetches price series for every requested symbol, replays the DCA
// strategy over them, and derives the final metrics. Symbols whose fetch
// fails or yields no bars participate in nothing; the run only fails when
// that is true of every symbol.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	end := req.EndDate
	if end.IsZero() {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	series, err := r.fetchAll(ctx, req.Symbols, req.StartDate, end)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}

	engine := NewEngine(series, req.Allocation, req.FeeRate)
	engine.InvestInitial(req.StartDate, req.InitialAmount)
	for _, date := range InvestmentDates(req.StartDate, end, req.Frequency) {
		engine.InvestRegular(date, req.InvestmentAmount)
	}

	positions := BuildPositions(engine.Holdings(), series)
	var finalValue float64
	for _, p := range positions {
		finalValue += p.CurrentValue
	}
	r.resolveNames(ctx, positions)

	summary := BuildSummary(req.StartDate, end, engine.TotalInvested(), finalValue, len(engine.Ledger()))

	return &Result{
		Summary:      summary,
		Portfolio:    positions,
		Transactions: engine.Ledger(),
		ValueHistory: engine.History(),
	}, nil
}

// fetchAll fetches every symbol's series in parallel. Provider errors and
// empty results drop the symbol from the returned map; they never fail the
// run.
func (r *Runner) fetchAll(ctx context.Context, symbols []string, start, end time.Time) (map[string]domain.Series, error) {
	results := make([]domain.Series, len(symbols))
	sem := make(chan struct{}, r.fetchParallelism)

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			bars, err := r.provider.FetchDailyBars(gctx, symbol, start, end)
			if err != nil {
				r.log.Warn("fetching price series", "symbol", symbol, "error", err)
				return nil // treated as no data for this symbol
			}
			results[i] = domain.NewSeries(bars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string]domain.Series, len(symbols))
	for i, symbol := range symbols {
		if len(results[i]) == 0 {
			r.log.Warn("no price data in range", "symbol", symbol)
			continue
		}
		series[symbol] = results[i]
	}
	return series, nil
}

// resolveNames fills in display names best-effort. A failed lookup leaves
// the name empty and is only logged.
func (r *Runner) resolveNames(ctx context.Context, positions []Position) {
	for i := range positions {
		name, err := r.provider.ResolveName(ctx, positions[i].Symbol)
		if err != nil {
			r.log.Warn("resolving display name", "symbol", positions[i].Symbol, "error", err)
			continue
		}
		positions[i].Name = name
	}
}
