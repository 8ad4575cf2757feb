package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stockquery/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*NaverProvider)(nil)

const (
	naverChartURL = "https://api.finance.naver.com"
	naverStockURL = "https://m.stock.naver.com"
)

// NaverProvider fetches KRX daily bars from the Naver Finance sise API and
// display names from the mobile stock API.
type NaverProvider struct {
	chart *resty.Client
	stock *resty.Client
}

// NewNaverProvider creates a NaverProvider with the given request timeout.
func NewNaverProvider(timeout time.Duration) *NaverProvider {
	chart := resty.New().
		SetBaseURL(naverChartURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	stock := resty.New().
		SetBaseURL(naverStockURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	return &NaverProvider{chart: chart, stock: stock}
}

// Name returns the provider identifier.
func (p *NaverProvider) Name() string { return "naver" }

// FetchDailyBars fetches daily candles for a KRX symbol. The sise endpoint
// answers with a quasi-JSON table (single-quoted, header row first) that
// is normalized before decoding.
func (p *NaverProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	resp, err := p.chart.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":      symbol,
			"requestType": "1",
			"startTime":   start.Format("20060102"),
			"endTime":     end.Format("20060102"),
			"timeframe":   "day",
		}).
		Get("/siseJson.naver")
	if err != nil {
		return nil, fmt.Errorf("fetching sise chart for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("sise chart for %s: status %d", symbol, resp.StatusCode())
	}

	return parseSiseTable(symbol, resp.String())
}

// parseSiseTable decodes the sise response. Rows are
// [date, open, high, low, close, volume, foreignRatio]; the header row and
// malformed rows are skipped.
func parseSiseTable(symbol, body string) ([]domain.Bar, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(body), "'", `"`)

	var rows [][]any
	if err := json.Unmarshal([]byte(normalized), &rows); err != nil {
		return nil, fmt.Errorf("decoding sise chart for %s: %w", symbol, err)
	}

	var bars []domain.Bar
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("20060102", dateStr)
		if err != nil {
			continue // header row
		}
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: int64(toFloat(row[5])),
		})
	}
	return bars, nil
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// naverBasic is the subset of the mobile basic-info response we need.
type naverBasic struct {
	StockName string `json:"stockName"`
}

// ResolveName looks up the listing's Korean display name.
func (p *NaverProvider) ResolveName(ctx context.Context, symbol string) (string, error) {
	resp, err := p.stock.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/stock/%s/basic", symbol))
	if err != nil {
		return "", fmt.Errorf("fetching basic info for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("basic info for %s: status %d", symbol, resp.StatusCode())
	}

	var basic naverBasic
	if err := json.Unmarshal(resp.Body(), &basic); err != nil {
		return "", fmt.Errorf("decoding basic info for %s: %w", symbol, err)
	}
	if basic.StockName == "" {
		return "", fmt.Errorf("no name for %s", symbol)
	}
	return basic.StockName, nil
}
