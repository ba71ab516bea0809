package marketdata

import (
	"context"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

const (
	binanceDailyInterval = "1d"
	// Binance caps klines responses at 500 rows; a shorter page is the last one.
	binanceKlinesPageSize = 500
	fetchMaxRetries       = 3
)

// klinesFetcher fetches one page of klines. It is a field so tests can
// substitute the remote call.
type klinesFetcher func(ctx context.Context, symbol string, startTime, endTime int64) ([]*binance.Kline, error)

type BinanceClient struct {
	client       *binance.Client
	denomination string
	log          *logger.Logger
	fetchKlines  klinesFetcher
}

// NewBinanceClient creates a Binance provider. API credentials are optional
// for historical klines.
func NewBinanceClient(config ProviderConfig, log *logger.Logger) *BinanceClient {
	client := binance.NewClient(config.BinanceAPIKey, config.BinanceAPISecret)

	c := &BinanceClient{
		client:       client,
		denomination: config.DenominationTicker,
		log:          log,
		fetchKlines:  nil,
	}
	c.fetchKlines = c.fetchKlinesPage

	return c
}

func (c *BinanceClient) Name() ProviderType {
	return ProviderBinance
}

func (c *BinanceClient) DenominationTicker() string {
	return c.denomination
}

// FetchDailyOHLCV downloads daily klines for tokenTicker in the configured
// denomination, paginating through the 500-row API limit, and drops the
// trailing in-progress day.
func (c *BinanceClient) FetchDailyOHLCV(ctx context.Context, tokenTicker string, lookbackDays int) (types.Series, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	// Binance pair symbol, e.g. uni + usdt = UNIUSDT.
	symbol := strings.ToUpper(tokenTicker + c.denomination)

	now := time.Now().UTC()
	endTimeMillis := now.UnixMilli()
	currentStartTime := now.AddDate(0, 0, -lookbackDays).UnixMilli()

	var series types.Series

	for {
		klines, err := backoff.RetryWithData(func() ([]*binance.Kline, error) {
			return c.fetchKlines(ctx, symbol, currentStartTime, endTimeMillis)
		}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s from Binance", symbol)
		}

		bars, err := convertKlines(klines)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse klines for %s", symbol)
		}

		series = append(series, bars...)

		// No data or a short page means the last page.
		if len(klines) < binanceKlinesPageSize {
			break
		}

		// Close time of the last kline + 1ms avoids duplicates.
		lastKline := klines[len(klines)-1]
		currentStartTime = lastKline.CloseTime + 1

		if currentStartTime >= endTimeMillis {
			break
		}
	}

	// The last bar is today's in-progress candle.
	if len(series) > 0 {
		series = series[:len(series)-1]
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "Binance has no OHLCV data for %s", symbol)
	}

	c.log.Debug("Fetched daily OHLCV from Binance",
		zap.String("symbol", symbol),
		zap.Int("bars", len(series)),
	)

	return series, nil
}

func (c *BinanceClient) fetchKlinesPage(ctx context.Context, symbol string, startTime, endTime int64) ([]*binance.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(binanceDailyInterval).
		StartTime(startTime).
		EndTime(endTime).
		Do(ctx)
}

// convertKlines converts Binance kline rows to bars, using the open time as
// the bar timestamp.
func convertKlines(klines []*binance.Kline) (types.Series, error) {
	bars := make(types.Series, 0, len(klines))

	for _, k := range klines {
		bar := types.MarketData{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   0,
			High:   0,
			Low:    0,
			Close:  0,
			Volume: 0,
		}

		fields := []struct {
			raw  string
			dest *float64
		}{
			{k.Open, &bar.Open},
			{k.High, &bar.High},
			{k.Low, &bar.Low},
			{k.Close, &bar.Close},
			{k.Volume, &bar.Volume},
		}

		for _, field := range fields {
			value, err := strconv.ParseFloat(field.raw, 64)
			if err != nil {
				return nil, err
			}

			*field.dest = value
		}

		bars = append(bars, bar)
	}

	return bars, nil
}
