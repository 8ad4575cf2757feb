package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockquery/internal/backtest"
	"stockquery/internal/config"
	"stockquery/internal/domain"
	"stockquery/internal/provider"
)

// Server serves the stockquery HTTP API.
type Server struct {
	runner   *backtest.Runner
	provider provider.Provider
	defaults config.BacktestConfig
	log      *slog.Logger
}

// NewServer creates a Server. The provider is used directly by the
// historical-prices endpoint; backtests go through the runner.
func NewServer(runner *backtest.Runner, p provider.Provider, defaults config.BacktestConfig, log *slog.Logger) *Server {
	return &Server{
		runner:   runner,
		provider: p,
		defaults: defaults,
		log:      log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest/dca", s.handleDCA)
	mux.HandleFunc("GET /api/backtest/historical-prices", s.handleHistoricalPrices)
	mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDCA(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	var req DCARequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	btReq, err := s.buildRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Info("backtest requested",
		"symbols", strings.Join(req.Symbols, ","),
		"start", req.StartDate,
		"frequency", string(btReq.Frequency))

	result, err := s.runner.Run(r.Context(), btReq)
	if err != nil {
		if errors.Is(err, backtest.ErrNoData) {
			writeError(w, http.StatusNotFound, "no price data found for the requested symbols")
			return
		}
		s.log.Error("running backtest", "error", err)
		writeError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	writeJSON(w, DCAResponse{Status: "success", Data: ConvertResult(result)})
}

// buildRequest validates the JSON request and applies configured defaults
// to absent fields.
func (s *Server) buildRequest(req DCARequest) (backtest.Request, error) {
	if len(req.Symbols) == 0 {
		return backtest.Request{}, fmt.Errorf("symbols required")
	}
	if req.StartDate == "" {
		return backtest.Request{}, fmt.Errorf("start_date required")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return backtest.Request{}, fmt.Errorf("invalid start_date %q", req.StartDate)
	}

	var end time.Time
	if req.EndDate != "" {
		end, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return backtest.Request{}, fmt.Errorf("invalid end_date %q", req.EndDate)
		}
		if end.Before(start) {
			return backtest.Request{}, fmt.Errorf("end_date before start_date")
		}
	}

	frequency := req.InvestmentFrequency
	if frequency == "" {
		frequency = s.defaults.Frequency
	}

	out := backtest.Request{
		Symbols:          req.Symbols,
		Allocation:       req.Allocation,
		StartDate:        start,
		EndDate:          end,
		InitialAmount:    orDefault(req.InitialAmount, s.defaults.InitialAmount),
		InvestmentAmount: orDefault(req.InvestmentAmount, s.defaults.InvestmentAmount),
		Frequency:        domain.ParseFrequency(frequency),
		FeeRate:          orDefault(req.FeeRate, s.defaults.FeeRate),
		TaxRate:          orDefault(req.TaxRate, s.defaults.TaxRate),
	}
	if out.FeeRate < 0 || out.TaxRate < 0 {
		return backtest.Request{}, fmt.Errorf("rates must not be negative")
	}
	return out, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (s *Server) handleHistoricalPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbolsParam := q.Get("symbols")
	if symbolsParam == "" {
		writeError(w, http.StatusBadRequest, "symbols required")
		return
	}
	var symbols []string
	for _, sym := range strings.Split(symbolsParam, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	start, err := time.Parse(dateLayout, q.Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if v := q.Get("end_date"); v != "" {
		end, err = time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
	}
	interval := q.Get("interval")

	data := make(map[string]SymbolPricesJSON)
	for _, symbol := range symbols {
		bars, err := s.provider.FetchDailyBars(r.Context(), symbol, start, end)
		if err != nil {
			s.log.Warn("fetching historical prices", "symbol", symbol, "error", err)
			continue
		}
		series := domain.NewSeries(bars)
		if len(series) == 0 {
			s.log.Warn("no historical prices in range", "symbol", symbol)
			continue
		}

		if interval == "1m" {
			series = resampleMonthly(series)
		}

		name, err := s.provider.ResolveName(r.Context(), symbol)
		if err != nil {
			s.log.Warn("resolving display name", "symbol", symbol, "error", err)
		}

		first, last := series[0].Date, series[len(series)-1].Date
		data[symbol] = SymbolPricesJSON{
			Name:   name,
			Market: string(provider.DetectMarket(symbol)),
			Data:   convertBars(series),
			Timeframe: TimeframeJSON{
				Start:      first.Format(dateLayout),
				End:        last.Format(dateLayout),
				Days:       int(last.Sub(first).Hours() / 24),
				DataPoints: len(series),
			},
		}
	}

	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "no price data found for the requested symbols")
		return
	}

	writeJSON(w, PricesResponse{
		Status:           "success",
		Data:             data,
		SymbolsRequested: len(symbols),
		SymbolsFound:     len(data),
	})
}
