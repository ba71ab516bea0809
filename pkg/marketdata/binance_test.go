package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

type BinanceClientTestSuite struct {
	suite.Suite
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func newTestBinanceClient(fetch klinesFetcher) *BinanceClient {
	c := NewBinanceClient(ProviderConfig{
		DenominationTicker: "usdt",
		BinanceAPIKey:      "",
		BinanceAPISecret:   "",
		PolygonAPIKey:      "",
	}, logger.NewNopLogger())
	c.fetchKlines = fetch

	return c
}

// klinesPage builds count consecutive daily klines starting at start, all
// priced at the given close.
func klinesPage(start time.Time, count int, close float64) []*binance.Kline {
	klines := make([]*binance.Kline, count)

	for i := range count {
		openTime := start.AddDate(0, 0, i)
		price := strconv.FormatFloat(close, 'f', -1, 64)

		//nolint:exhaustruct // remaining kline fields are unused
		klines[i] = &binance.Kline{
			OpenTime:  openTime.UnixMilli(),
			CloseTime: openTime.AddDate(0, 0, 1).UnixMilli() - 1,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "1000",
		}
	}

	return klines
}

func (suite *BinanceClientTestSuite) TestFetchSinglePageDropsTrailingDay() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var gotSymbol string

	c := newTestBinanceClient(func(_ context.Context, symbol string, _, _ int64) ([]*binance.Kline, error) {
		gotSymbol = symbol

		return klinesPage(start, 5, 42), nil
	})

	series, err := c.FetchDailyOHLCV(context.Background(), "uni", 30)
	suite.NoError(err)

	suite.Equal("UNIUSDT", gotSymbol)
	// Five klines minus the in-progress trailing day.
	suite.Len(series, 4)
	suite.True(start.Equal(series[0].Time))
	suite.Equal(42.0, series[0].Close)
	suite.Equal(1000.0, series[0].Volume)
	suite.True(series.IsSorted())
}

func (suite *BinanceClientTestSuite) TestFetchPaginatesFullPages() {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	pages := 0

	c := newTestBinanceClient(func(_ context.Context, _ string, startTime, _ int64) ([]*binance.Kline, error) {
		pages++

		if pages == 1 {
			return klinesPage(start, binanceKlinesPageSize, 10), nil
		}

		// Second page resumes one millisecond after the last close time,
		// which lands on the next day.
		suite.True(start.AddDate(0, 0, binanceKlinesPageSize).Equal(time.UnixMilli(startTime).UTC()))

		return klinesPage(time.UnixMilli(startTime).UTC(), 3, 11), nil
	})

	series, err := c.FetchDailyOHLCV(context.Background(), "aave", 2000)
	suite.NoError(err)

	suite.Equal(2, pages)
	suite.Len(series, binanceKlinesPageSize+2)
	suite.True(series.IsSorted())
}

func (suite *BinanceClientTestSuite) TestFetchEmptyIsNoDataFound() {
	c := newTestBinanceClient(func(_ context.Context, _ string, _, _ int64) ([]*binance.Kline, error) {
		return nil, nil
	})

	_, err := c.FetchDailyOHLCV(context.Background(), "nosuchtoken", 30)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
	suite.True(errors.IsDataUnavailable(err))
}

func (suite *BinanceClientTestSuite) TestFetchSingleKlineIsNoDataFound() {
	// Only today's in-progress candle exists; dropping it leaves nothing.
	start := time.Now().UTC().Truncate(24 * time.Hour)

	c := newTestBinanceClient(func(_ context.Context, _ string, _, _ int64) ([]*binance.Kline, error) {
		return klinesPage(start, 1, 5), nil
	})

	_, err := c.FetchDailyOHLCV(context.Background(), "uni", 30)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *BinanceClientTestSuite) TestFetchErrorIsRetriedThenFails() {
	calls := 0

	c := newTestBinanceClient(func(_ context.Context, _ string, _, _ int64) ([]*binance.Kline, error) {
		calls++

		return nil, fmt.Errorf("api unavailable")
	})

	_, err := c.FetchDailyOHLCV(context.Background(), "uni", 30)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.True(errors.IsDataUnavailable(err))
	suite.Equal(fetchMaxRetries+1, calls)
}

func (suite *BinanceClientTestSuite) TestFetchUnparseablePayload() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := newTestBinanceClient(func(_ context.Context, _ string, _, _ int64) ([]*binance.Kline, error) {
		klines := klinesPage(start, 2, 10)
		klines[1].Close = "not-a-number"

		return klines, nil
	})

	_, err := c.FetchDailyOHLCV(context.Background(), "uni", 30)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
	suite.False(errors.IsDataUnavailable(err))
}
