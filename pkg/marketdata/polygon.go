package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// aggsIterator is the subset of the polygon aggregates iterator the client
// consumes; tests substitute it for the remote call.
type aggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

type aggsLister func(ctx context.Context, params *models.ListAggsParams) aggsIterator

type PolygonClient struct {
	client       *polygon.Client
	denomination string
	log          *logger.Logger
	listAggs     aggsLister
}

// NewPolygonClient creates a Polygon provider. An API key is required.
func NewPolygonClient(config ProviderConfig, log *logger.Logger) (*PolygonClient, error) {
	if config.PolygonAPIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires an API key")
	}

	client := polygon.New(config.PolygonAPIKey)

	c := &PolygonClient{
		client:       client,
		denomination: config.DenominationTicker,
		log:          log,
		listAggs:     nil,
	}
	c.listAggs = func(ctx context.Context, params *models.ListAggsParams) aggsIterator {
		return client.ListAggs(ctx, params)
	}

	return c, nil
}

func (c *PolygonClient) Name() ProviderType {
	return ProviderPolygon
}

func (c *PolygonClient) DenominationTicker() string {
	return c.denomination
}

// FetchDailyOHLCV downloads daily aggregates for the crypto pair ticker
// X:TOKENDENOMINATION and drops the trailing in-progress day.
func (c *PolygonClient) FetchDailyOHLCV(ctx context.Context, tokenTicker string, lookbackDays int) (types.Series, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	ticker := polygonCryptoTicker(tokenTicker, c.denomination)

	now := time.Now().UTC()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(now.AddDate(0, 0, -lookbackDays)),
		To:         models.Millis(now),
	}.WithLimit(50000)

	series, err := backoff.RetryWithData(func() (types.Series, error) {
		return c.collectAggs(ctx, params)
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch aggregates for %s from Polygon", ticker)
	}

	// The last bar is today's in-progress candle.
	if len(series) > 0 {
		series = series[:len(series)-1]
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "Polygon has no OHLCV data for %s", ticker)
	}

	c.log.Debug("Fetched daily OHLCV from Polygon",
		zap.String("ticker", ticker),
		zap.Int("bars", len(series)),
	)

	return series, nil
}

func (c *PolygonClient) collectAggs(ctx context.Context, params *models.ListAggsParams) (types.Series, error) {
	iter := c.listAggs(ctx, params)

	var series types.Series

	for iter.Next() {
		agg := iter.Item()
		series = append(series, types.MarketData{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return series, nil
}

// polygonCryptoTicker builds the crypto pair ticker, e.g. uni + usdt = X:UNIUSDT.
func polygonCryptoTicker(tokenTicker, denominationTicker string) string {
	return "X:" + strings.ToUpper(tokenTicker+denominationTicker)
}
