package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockquery/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches US daily bars from the Alpaca market-data API and
// display names from the Alpaca assets endpoint.
type AlpacaProvider struct {
	data    *marketdata.Client
	trading *alpacaapi.Client
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// dataURL and baseURL override the default endpoints when non-empty.
func NewAlpacaProvider(apiKey, apiSecret, dataURL, baseURL string) *AlpacaProvider {
	dataOpts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}

	tradingOpts := alpacaapi.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}

	return &AlpacaProvider{
		data:    marketdata.NewClient(dataOpts),
		trading: alpacaapi.NewClient(tradingOpts),
	}
}

// Name returns the provider identifier.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// FetchDailyBars fetches split-adjusted daily bars for the symbol.
func (p *AlpacaProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	alpacaBars, err := p.data.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        end,
		Adjustment: marketdata.Split,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol: strings.ToUpper(symbol),
			Date:   time.Date(ab.Timestamp.Year(), ab.Timestamp.Month(), ab.Timestamp.Day(), 0, 0, 0, 0, time.UTC),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}
	return bars, nil
}

// ResolveName looks up the asset's registered name.
func (p *AlpacaProvider) ResolveName(_ context.Context, symbol string) (string, error) {
	asset, err := p.trading.GetAsset(strings.ToUpper(symbol))
	if err != nil {
		return "", fmt.Errorf("GetAsset %s: %w", symbol, err)
	}
	return asset.Name, nil
}
