// One-shot tool: run a DCA backtest from the command line and print the
// JSON result.
//
// Usage:
//
//	go run cmd/stockquery-backtest/main.go \
//	  -symbols AAPL,MSFT -allocation AAPL:60,MSFT:40 \
//	  -start 2020-01-01 -end 2024-01-01 -frequency monthly
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockquery/internal/backtest"
	"stockquery/internal/domain"
	"stockquery/internal/httpapi"
	"stockquery/internal/provider"
)

func main() {
	_ = godotenv.Load()

	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (required)")
	allocationFlag := flag.String("allocation", "", "per-symbol weights, e.g. AAPL:60,MSFT:40 (required)")
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (required)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (default today)")
	initialFlag := flag.Float64("initial", 1000000, "initial lump-sum amount")
	amountFlag := flag.Float64("amount", 100000, "recurring contribution amount")
	frequencyFlag := flag.String("frequency", "monthly", "monthly, quarterly, or yearly")
	feeFlag := flag.Float64("fee", 0.015, "fee rate percent")
	flag.Parse()

	if *symbolsFlag == "" || *allocationFlag == "" || *startFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	start, err := time.Parse("2006-01-02", *startFlag)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	var end time.Time
	if *endFlag != "" {
		end, err = time.Parse("2006-01-02", *endFlag)
		if err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
	}

	allocation, err := parseAllocation(*allocationFlag)
	if err != nil {
		log.Fatalf("invalid -allocation: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	router := provider.NewRouter(provider.NewYahooProvider())
	router.Register(domain.MarketKR, provider.NewNaverProvider(30*time.Second))
	if key := os.Getenv("APCA_API_KEY_ID"); key != "" {
		router.Register(domain.MarketUS,
			provider.NewAlpacaProvider(key, os.Getenv("APCA_API_SECRET_KEY"), "", ""))
	}

	runner := backtest.NewRunner(router, logger)
	result, err := runner.Run(context.Background(), backtest.Request{
		Symbols:          strings.Split(*symbolsFlag, ","),
		Allocation:       allocation,
		StartDate:        start,
		EndDate:          end,
		InitialAmount:    *initialFlag,
		InvestmentAmount: *amountFlag,
		Frequency:        domain.ParseFrequency(*frequencyFlag),
		FeeRate:          *feeFlag,
	})
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(httpapi.ConvertResult(result)); err != nil {
		log.Fatalf("encoding result: %v", err)
	}
}

// parseAllocation parses "SYM:PCT,SYM:PCT" into an allocation table.
func parseAllocation(s string) (map[string]float64, error) {
	allocation := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		symbol, pctStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed entry %q", pair)
		}
		pct, err := strconv.ParseFloat(pctStr, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed weight in %q", pair)
		}
		allocation[strings.TrimSpace(symbol)] = pct
	}
	return allocation, nil
}
