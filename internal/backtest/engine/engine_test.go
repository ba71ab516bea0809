package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/strategy"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func seriesFromCloses(closes []float64) types.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(types.Series, len(closes))

	for i, close := range closes {
		series[i] = types.MarketData{
			Time:   start.AddDate(0, 0, i),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1,
		}
	}

	return series
}

func (suite *EngineTestSuite) newEngine(config Config) *BacktestEngineV1 {
	engine, err := NewBacktestEngineV1(config, logger.NewNopLogger())
	suite.Require().NoError(err)

	return engine
}

func (suite *EngineTestSuite) newKDJCross(hPeriod, lPeriod, emaPeriod int) *strategy.KDJCross {
	strat := strategy.NewKDJCross()
	suite.Require().NoError(strat.SetPeriods(hPeriod, lPeriod, emaPeriod))

	return strat
}

func (suite *EngineTestSuite) TestRejectsInvalidConfig() {
	config := DefaultConfig()
	config.StartingCash = -5

	_, err := NewBacktestEngineV1(config, logger.NewNopLogger())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *EngineTestSuite) TestRejectsEmptySeries() {
	engine := suite.newEngine(DefaultConfig())

	_, err := engine.Run("uni", "usdt", suite.newKDJCross(2, 2, 1), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestEmptySeries))
}

func (suite *EngineTestSuite) TestRejectsUnsortedSeries() {
	engine := suite.newEngine(DefaultConfig())

	series := seriesFromCloses([]float64{10, 11, 12})
	series[0].Time, series[2].Time = series[2].Time, series[0].Time

	_, err := engine.Run("uni", "usdt", suite.newKDJCross(2, 2, 1), series)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

// A constant-price series never produces a crossing, so the pass ends with
// the starting cash untouched and an undefined Sharpe ratio.
func (suite *EngineTestSuite) TestConstantPricesNeverTrade() {
	config := DefaultConfig()
	config.HPeriod = 2
	config.LPeriod = 2
	config.EMAPeriod = 1

	engine := suite.newEngine(config)

	result, curve, err := engine.RunWithCurve("uni", "usdt", suite.newKDJCross(2, 2, 1), seriesFromCloses([]float64{10, 10, 10}))
	suite.NoError(err)

	suite.Equal(config.StartingCash, result.FinalCash)
	suite.Equal(0.0, result.MaxDrawDown)
	suite.True(result.SharpeRatio.IsNone())
	suite.Len(curve, 3)

	for _, point := range curve {
		suite.Equal(config.StartingCash, point.Equity)
	}
}

func (suite *EngineTestSuite) TestMomentumReversalRoundTrip() {
	config := DefaultConfig()
	config.StartingCash = 1000
	config.HPeriod = 3
	config.LPeriod = 3
	config.EMAPeriod = 2

	engine := suite.newEngine(config)

	closes := []float64{10, 9, 8, 7, 6, 5, 6, 8, 10, 12, 14, 16, 18, 17, 15, 12, 10, 8, 7, 6}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(types.Series, len(closes))

	for i, c := range closes {
		series[i] = types.MarketData{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}

	result, curve, err := engine.RunWithCurve("uni", "usdt", suite.newKDJCross(3, 3, 2), series)
	suite.NoError(err)

	suite.Equal("uni", result.TokenTicker)
	suite.Equal("usdt", result.DenominationTicker)
	suite.Equal("kdj", result.StrategyName)
	suite.Len(curve, len(closes))

	// The dip-rise-fall shape forces at least one full buy/sell round trip,
	// so the final cash has moved away from the starting cash.
	suite.NotEqual(config.StartingCash, result.FinalCash)
	suite.GreaterOrEqual(result.MaxDrawDown, 0.0)
	suite.LessOrEqual(result.MaxDrawDown, 100.0)
	suite.Len(result.AnnualReturns, 1)
	suite.Equal(2024, result.AnnualReturns[0].Year)
}

// With starting cash 1000 and a buy filling at close 100 under zero
// commission, the fill is exactly 10.0 units and cash lands at exactly 0.0.
func (suite *EngineTestSuite) TestBuyFillIsExactAtDecisionBarClose() {
	config := DefaultConfig()
	config.StartingCash = 1000
	config.HPeriod = 2
	config.LPeriod = 2
	config.EMAPeriod = 2

	engine := suite.newEngine(config)

	// J-D swings positive on the 110 bar, negative through the decline, then
	// crosses back up on the final bar, which closes at exactly 100.
	closes := []float64{100, 110, 105, 90, 100}
	result, curve, err := engine.RunWithCurve("uni", "usdt", suite.newKDJCross(2, 2, 2), seriesFromCloses(closes))
	suite.NoError(err)

	suite.Equal(0.0, result.FinalCash)
	suite.Equal(1000.0, curve[len(curve)-1].Equity)
}

func (suite *EngineTestSuite) TestConfigParsing() {
	content := []byte("starting_cash: 5000\ncommission_rate: 0.001\nh_period: 9\n")

	config, err := ParseConfig(content)
	suite.NoError(err)
	suite.Equal(5000.0, config.StartingCash)
	suite.Equal(0.001, config.CommissionRate)
	suite.Equal(9, config.HPeriod)
	// Unset fields keep their defaults.
	suite.Equal(14, config.LPeriod)
	suite.Equal(3, config.EMAPeriod)
	suite.Equal(365, config.PeriodsPerYear)
}

func (suite *EngineTestSuite) TestConfigParsingErrors() {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "starting_cash: [oops"},
		{"zero starting cash", "starting_cash: 0"},
		{"negative commission", "commission_rate: -0.1"},
		{"commission of one", "commission_rate: 1"},
		{"zero period", "ema_period: 0"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := ParseConfig([]byte(tc.content))
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
		})
	}
}
