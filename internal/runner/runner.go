// Package runner orchestrates a backtesting session: gathering OHLCV data
// per token, fanning the (token, strategy) pairs out over goroutines, and
// collecting the completed results.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/reporting"
	"github.com/rxtech-lab/momentum-backtest/internal/strategy"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
	"github.com/rxtech-lab/momentum-backtest/pkg/marketdata"
)

// DefaultTokenTickers is the DeFi token set backtested when none are given.
var DefaultTokenTickers = []string{"uni", "aave", "snx", "crv", "comp", "1inch", "yfi", "zen"}

// Options configures one backtesting session.
type Options struct {
	// TokenTickers lists the tokens to backtest; empty falls back to
	// DefaultTokenTickers.
	TokenTickers []string
	// StrategyNames lists the strategies to run per token; at least one is
	// required.
	StrategyNames []string
	// LookbackDays bounds the fetched history; zero fetches everything.
	LookbackDays int
	EngineConfig engine.Config
	WithGraphs   bool
	// ReportsDir receives the per-pair HTML reports and equity curve CSVs.
	ReportsDir string
	// ResultsPath receives the aggregated results YAML; empty skips it.
	ResultsPath string
}

// Runner executes every (token, strategy) pair of a session. Each pair is an
// independent pass sharing nothing, so pairs run concurrently.
type Runner struct {
	options    Options
	provider   marketdata.Provider
	strategies *strategy.Registry
	reporter   *reporting.Reporter
	log        *logger.Logger
}

// NewRunner validates the session options and creates a runner. Unknown
// strategies and an empty strategy list are configuration errors, raised
// before any data is fetched.
func NewRunner(options Options, provider marketdata.Provider, log *logger.Logger) (*Runner, error) {
	options.TokenTickers = lowercaseAll(options.TokenTickers)
	options.StrategyNames = lowercaseAll(options.StrategyNames)

	if len(options.TokenTickers) == 0 {
		options.TokenTickers = DefaultTokenTickers

		log.Warn("No token tickers were provided, using the default set",
			zap.Strings("token_tickers", options.TokenTickers))
	}

	if len(options.StrategyNames) == 0 {
		return nil, errors.New(errors.ErrCodeNoStrategySpecified, "no strategy name was provided")
	}

	if err := options.EngineConfig.Validate(); err != nil {
		return nil, err
	}

	strategies := strategy.NewRegistry()

	for _, name := range options.StrategyNames {
		if _, err := strategies.Create(name); err != nil {
			return nil, err
		}
	}

	return &Runner{
		options:    options,
		provider:   provider,
		strategies: strategies,
		reporter:   reporting.NewReporter(options.ReportsDir, log),
		log:        log,
	}, nil
}

// Run gathers the data and backtests every (token, strategy) pair. Tokens
// without data at the provider are skipped with a warning; any other pair
// failure aborts the session.
func (r *Runner) Run(ctx context.Context) ([]types.BacktestResult, error) {
	gathered, err := r.gatherData(ctx)
	if err != nil {
		return nil, err
	}

	if len(gathered) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no token had OHLCV data at the provider")
	}

	r.log.Info("Starting backtesting",
		zap.Int("tokens", len(gathered)),
		zap.Int("strategies", len(r.options.StrategyNames)),
	)

	results, err := r.runPairs(gathered)
	if err != nil {
		return nil, err
	}

	r.logAggregatedResults(results)

	if r.options.ResultsPath != "" {
		if err := types.WriteBacktestResults(r.options.ResultsPath, results); err != nil {
			// Reporting failures never discard computed results.
			r.log.Warn("Failed to write aggregated results", zap.Error(err))
		}
	}

	return results, nil
}

type tokenSeries struct {
	ticker string
	series types.Series
}

// gatherData fetches the OHLCV series for every token, keeping ticker order.
// A token the provider has no data for is skipped, not fatal.
func (r *Runner) gatherData(ctx context.Context) ([]tokenSeries, error) {
	gathered := make([]tokenSeries, 0, len(r.options.TokenTickers))

	for _, ticker := range r.options.TokenTickers {
		r.log.Info("Gathering OHLCV data", zap.String("token", strings.ToUpper(ticker)))

		series, err := r.provider.FetchDailyOHLCV(ctx, ticker, r.options.LookbackDays)
		if err != nil {
			if errors.IsDataUnavailable(err) {
				r.log.Warn("Skipping token without OHLCV data",
					zap.String("token", ticker),
					zap.Error(err),
				)

				continue
			}

			return nil, err
		}

		gathered = append(gathered, tokenSeries{ticker: ticker, series: series})
	}

	return gathered, nil
}

// runPairs backtests every (token, strategy) pair concurrently. Passes share
// nothing: each goroutine owns its engine, strategy instance and state.
func (r *Runner) runPairs(gathered []tokenSeries) ([]types.BacktestResult, error) {
	total := len(gathered) * len(r.options.StrategyNames)
	results := make([]*types.BacktestResult, total)
	pairErrs := make([]error, total)

	bar := progressbar.Default(int64(total), "Backtesting")

	var wg sync.WaitGroup

	for i, token := range gathered {
		for j, strategyName := range r.options.StrategyNames {
			wg.Add(1)

			go func(slot int, token tokenSeries, strategyName string) {
				defer wg.Done()
				defer func() { _ = bar.Add(1) }()

				result, err := r.runPair(token, strategyName)
				if err != nil {
					pairErrs[slot] = err

					return
				}

				results[slot] = &result
			}(i*len(r.options.StrategyNames)+j, token, strategyName)
		}
	}

	wg.Wait()
	_ = bar.Finish()

	for _, err := range pairErrs {
		if err != nil {
			return nil, err
		}
	}

	completed := make([]types.BacktestResult, 0, total)
	for _, result := range results {
		if result != nil {
			completed = append(completed, *result)
		}
	}

	return completed, nil
}

func (r *Runner) runPair(token tokenSeries, strategyName string) (types.BacktestResult, error) {
	strat, err := r.strategies.Create(strategyName)
	if err != nil {
		return types.BacktestResult{}, err
	}

	if kdj, ok := strat.(*strategy.KDJCross); ok {
		if err := kdj.SetPeriods(r.options.EngineConfig.HPeriod, r.options.EngineConfig.LPeriod, r.options.EngineConfig.EMAPeriod); err != nil {
			return types.BacktestResult{}, err
		}
	}

	backtester, err := engine.NewBacktestEngineV1(r.options.EngineConfig, r.log)
	if err != nil {
		return types.BacktestResult{}, err
	}

	result, curve, err := backtester.RunWithCurve(token.ticker, r.provider.DenominationTicker(), strat, token.series)
	if err != nil {
		return types.BacktestResult{}, errors.Wrapf(errors.GetCode(err), err, "backtest of %s with %s failed", token.ticker, strategyName)
	}

	result.WithGraphs = r.options.WithGraphs
	if r.options.WithGraphs {
		r.writeReports(&result, curve)
	}

	return result, nil
}

// writeReports renders the per-pair artifacts. A reporting failure is logged
// and the computed result kept.
func (r *Runner) writeReports(result *types.BacktestResult, curve []types.EquityPoint) {
	reportPath, csvPath, err := r.reporter.Write(*result, curve)
	if err != nil {
		r.log.Warn("Cannot create HTML report",
			zap.String("pair", result.Pair()),
			zap.Error(err),
		)

		return
	}

	result.ReportPath = optional.Some(reportPath)
	result.EquityCurvePath = optional.Some(csvPath)
}

// logAggregatedResults prints the summary table for all completed pairs, with
// max drawdown negated for display.
func (r *Runner) logAggregatedResults(results []types.BacktestResult) {
	r.log.Info("Strategy name |   Pair   | Sharpe | Max DD | Annual returns | Cash")

	for _, result := range results {
		sharpe := "n/a"
		if result.SharpeRatio.IsSome() {
			sharpe = fmt.Sprintf("%.2f", result.SharpeRatio.Unwrap())
		}

		annual := make([]string, 0, len(result.AnnualReturns))
		for _, year := range result.AnnualReturns {
			annual = append(annual, fmt.Sprintf("%d: %.2f%%", year.Year, year.Return*100.0))
		}

		r.log.Info(fmt.Sprintf("Strategy %s | %s | %s | %.2f%% | %s | $%.2f",
			strings.ToUpper(result.StrategyName),
			result.Pair(),
			sharpe,
			-1.0*result.MaxDrawDown,
			strings.Join(annual, ", "),
			result.FinalCash,
		))
	}
}

func lowercaseAll(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, value := range values {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(value)))
	}

	return lowered
}
