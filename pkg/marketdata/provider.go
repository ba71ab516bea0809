// Package marketdata fetches historical daily OHLCV series from external
// exchanges. Providers are pure data sources; absence of data for a ticker is
// a recoverable condition the caller handles by skipping the ticker.
package marketdata

import (
	"context"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// DefaultDenominationTicker is the quote asset used when none is configured.
const DefaultDenominationTicker = "usdt"

// DefaultLookbackDays fetches the full available history for daily bars.
const DefaultLookbackDays = 10_000

// ProviderConfig carries the credentials and denomination for a provider.
type ProviderConfig struct {
	// DenominationTicker is the quote asset, e.g. "usdt". Pairs are formed as
	// TOKEN + DENOMINATION, e.g. uni + usdt = UNIUSDT.
	DenominationTicker string
	BinanceAPIKey      string
	BinanceAPISecret   string
	PolygonAPIKey      string
}

// Provider fetches historical daily OHLCV bars for a token in the provider's
// denomination asset.
type Provider interface {
	// Name returns the provider's registry name.
	Name() ProviderType
	// DenominationTicker returns the quote asset the series is priced in.
	DenominationTicker() string
	// FetchDailyOHLCV returns up to lookbackDays of completed daily bars for
	// tokenTicker, oldest first. The trailing in-progress day is dropped.
	// Absent data yields an error for which errors.IsDataUnavailable is true.
	FetchDailyOHLCV(ctx context.Context, tokenTicker string, lookbackDays int) (types.Series, error)
}

// NewMarketDataProvider creates a market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config ProviderConfig, log *logger.Logger) (Provider, error) {
	if config.DenominationTicker == "" {
		config.DenominationTicker = DefaultDenominationTicker
	}

	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(config, log), nil
	case ProviderPolygon:
		return NewPolygonClient(config, log)
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownProvider, "unsupported market data provider: %s", providerType)
	}
}
