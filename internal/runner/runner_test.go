package runner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/momentum-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
	"github.com/rxtech-lab/momentum-backtest/pkg/marketdata"
)

type RunnerTestSuite struct {
	suite.Suite
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

type stubProvider struct {
	series map[string]types.Series
	errs   map[string]error
}

func (s *stubProvider) Name() marketdata.ProviderType {
	return marketdata.ProviderBinance
}

func (s *stubProvider) DenominationTicker() string {
	return "usdt"
}

func (s *stubProvider) FetchDailyOHLCV(_ context.Context, tokenTicker string, _ int) (types.Series, error) {
	if err, ok := s.errs[tokenTicker]; ok {
		return nil, err
	}

	series, ok := s.series[tokenTicker]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no data for %s", tokenTicker)
	}

	return series, nil
}

func reversalSeries() types.Series {
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

	return series
}

func testEngineConfig() engine.Config {
	config := engine.DefaultConfig()
	config.StartingCash = 1000
	config.HPeriod = 3
	config.LPeriod = 3
	config.EMAPeriod = 2

	return config
}

func (suite *RunnerTestSuite) defaultOptions() Options {
	return Options{
		TokenTickers:  []string{"uni", "aave"},
		StrategyNames: []string{"kdj"},
		LookbackDays:  0,
		EngineConfig:  testEngineConfig(),
		WithGraphs:    false,
		ReportsDir:    filepath.Join(suite.T().TempDir(), "reports"),
		ResultsPath:   "",
	}
}

func (suite *RunnerTestSuite) TestRequiresStrategy() {
	options := suite.defaultOptions()
	options.StrategyNames = nil

	_, err := NewRunner(options, &stubProvider{series: nil, errs: nil}, logger.NewNopLogger())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoStrategySpecified))
}

func (suite *RunnerTestSuite) TestRejectsUnknownStrategyBeforeFetch() {
	options := suite.defaultOptions()
	options.StrategyNames = []string{"kdj", "macd"}

	_, err := NewRunner(options, &stubProvider{series: nil, errs: nil}, logger.NewNopLogger())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *RunnerTestSuite) TestDefaultsTokenTickers() {
	options := suite.defaultOptions()
	options.TokenTickers = nil

	runner, err := NewRunner(options, &stubProvider{series: nil, errs: nil}, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal(DefaultTokenTickers, runner.options.TokenTickers)
}

func (suite *RunnerTestSuite) TestNormalizesTickerCase() {
	options := suite.defaultOptions()
	options.TokenTickers = []string{" UNI ", "Aave"}
	options.StrategyNames = []string{"KDJ"}

	runner, err := NewRunner(options, &stubProvider{series: nil, errs: nil}, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal([]string{"uni", "aave"}, runner.options.TokenTickers)
	suite.Equal([]string{"kdj"}, runner.options.StrategyNames)
}

func (suite *RunnerTestSuite) TestRunSkipsTokensWithoutData() {
	provider := &stubProvider{
		series: map[string]types.Series{
			"uni": reversalSeries(),
		},
		errs: nil,
	}

	runner, err := NewRunner(suite.defaultOptions(), provider, logger.NewNopLogger())
	suite.Require().NoError(err)

	results, err := runner.Run(context.Background())
	suite.NoError(err)

	// aave has no data and is skipped; uni completes.
	suite.Len(results, 1)
	suite.Equal("uni", results[0].TokenTicker)
	suite.Equal("usdt", results[0].DenominationTicker)
	suite.Equal("kdj", results[0].StrategyName)
}

func (suite *RunnerTestSuite) TestRunFailsWhenNoTokenHasData() {
	runner, err := NewRunner(suite.defaultOptions(), &stubProvider{series: nil, errs: nil}, logger.NewNopLogger())
	suite.Require().NoError(err)

	_, err = runner.Run(context.Background())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *RunnerTestSuite) TestRunAbortsOnNonDataError() {
	provider := &stubProvider{
		series: map[string]types.Series{
			"uni": reversalSeries(),
		},
		errs: map[string]error{
			"aave": errors.New(errors.ErrCodeMarketDataParseFailed, "bad payload"),
		},
	}

	runner, err := NewRunner(suite.defaultOptions(), provider, logger.NewNopLogger())
	suite.Require().NoError(err)

	_, err = runner.Run(context.Background())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

func (suite *RunnerTestSuite) TestRunAllPairsConcurrently() {
	provider := &stubProvider{
		series: map[string]types.Series{
			"uni":  reversalSeries(),
			"aave": reversalSeries(),
		},
		errs: nil,
	}

	options := suite.defaultOptions()
	results, err := suite.runSession(options, provider)
	suite.NoError(err)

	// Two tokens times one strategy, in (token, strategy) order.
	suite.Len(results, 2)
	suite.Equal("uni", results[0].TokenTicker)
	suite.Equal("aave", results[1].TokenTicker)
}

func (suite *RunnerTestSuite) TestRunWithGraphsWritesArtifacts() {
	provider := &stubProvider{
		series: map[string]types.Series{
			"uni": reversalSeries(),
		},
		errs: nil,
	}

	options := suite.defaultOptions()
	options.TokenTickers = []string{"uni"}
	options.WithGraphs = true
	options.ResultsPath = filepath.Join(suite.T().TempDir(), "results.yaml")

	results, err := suite.runSession(options, provider)
	suite.NoError(err)
	suite.Require().Len(results, 1)

	suite.True(results[0].WithGraphs)
	suite.Require().True(results[0].ReportPath.IsSome())
	suite.Require().True(results[0].EquityCurvePath.IsSome())
	suite.FileExists(results[0].ReportPath.Unwrap())
	suite.FileExists(results[0].EquityCurvePath.Unwrap())
	suite.FileExists(options.ResultsPath)
}

func (suite *RunnerTestSuite) runSession(options Options, provider marketdata.Provider) ([]types.BacktestResult, error) {
	runner, err := NewRunner(options, provider, logger.NewNopLogger())
	suite.Require().NoError(err)

	return runner.Run(context.Background())
}
