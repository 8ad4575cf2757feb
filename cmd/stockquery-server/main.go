// stockquery-server is the HTTP server exposing the backtest and
// historical-price APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockquery/internal/backtest"
	"stockquery/internal/config"
	"stockquery/internal/domain"
	"stockquery/internal/httpapi"
	"stockquery/internal/provider"
	"stockquery/internal/scheduler"
	"stockquery/internal/store"
	"stockquery/internal/util"
)

func main() {
	// Best effort; credentials may come from a local .env file.
	_ = godotenv.Load()

	cfgPath := "config/stockquery.yaml"
	if p := os.Getenv("STOCKQUERY_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	barStore, err := newBarStore(cfg)
	if err != nil {
		log.Fatalf("failed to open bar store: %v", err)
	}
	defer barStore.Close()

	cached := newProvider(cfg, barStore, logger)
	runner := backtest.NewRunner(cached, logger)
	api := httpapi.NewServer(runner, cached, cfg.Backtest, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Warmup.Cron != "" && len(cfg.Warmup.Symbols) > 0 {
		sched := scheduler.New(cached, cfg.Warmup.Symbols, cfg.Warmup.Lookback, logger)
		if err := sched.Register(cfg.Warmup.Cron); err != nil {
			log.Fatalf("failed to register warmup job: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// newBarStore opens the configured cache backend.
func newBarStore(cfg *config.Config) (store.BarStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)
	case "parquet":
		return store.NewParquetStore(cfg.Storage.DataDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newProvider assembles the provider stack: per-market adapters behind the
// router, wrapped in the read-through cache.
func newProvider(cfg *config.Config, barStore store.BarStore, logger *slog.Logger) provider.Provider {
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second

	router := provider.NewRouter(provider.NewYahooProvider())
	router.Register(domain.MarketKR, provider.NewNaverProvider(timeout))
	if cfg.Alpaca.APIKey != "" {
		router.Register(domain.MarketUS,
			provider.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.BaseURL))
	}

	return provider.NewCachedProvider(router, barStore, provider.DetectMarket, cfg.Providers.RateLimitPerMin, logger)
}
