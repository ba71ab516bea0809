package engine

import (
	"strings"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/analytics"
	"github.com/rxtech-lab/momentum-backtest/internal/backtest/engine/commission_fee"
	"github.com/rxtech-lab/momentum-backtest/internal/indicator"
	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/strategy"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// BacktestEngineV1 runs one strategy over one OHLCV series, bar by bar, and
// derives the performance metrics from the realized equity curve. A pass is
// strictly sequential and owns all of its mutable state; separate passes
// share nothing and may run concurrently.
type BacktestEngineV1 struct {
	config            Config
	log               *logger.Logger
	indicatorRegistry indicator.IndicatorRegistry
}

// NewBacktestEngineV1 creates an engine with the given validated config.
func NewBacktestEngineV1(config Config, log *logger.Logger) (*BacktestEngineV1, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	indicatorRegistry := indicator.NewIndicatorRegistry()
	if err := indicatorRegistry.RegisterIndicator(indicator.NewKDJ()); err != nil {
		return nil, err
	}

	return &BacktestEngineV1{
		config:            config,
		log:               log,
		indicatorRegistry: indicatorRegistry,
	}, nil
}

// Run simulates strat over series and returns the completed result.
func (b *BacktestEngineV1) Run(tokenTicker string, denominationTicker string, strat strategy.Strategy, series types.Series) (types.BacktestResult, error) {
	result, _, err := b.RunWithCurve(tokenTicker, denominationTicker, strat, series)

	return result, err
}

// RunWithCurve simulates strat over series and returns the completed result
// together with the equity curve, for callers that render reports.
//
// Fills happen at the close of the decision bar; an open position at series
// end is valued at the last close but not liquidated. The equity curve gets
// one point per bar whether or not a trade occurred.
func (b *BacktestEngineV1) RunWithCurve(tokenTicker string, denominationTicker string, strat strategy.Strategy, series types.Series) (types.BacktestResult, []types.EquityPoint, error) {
	tokenTicker = strings.ToLower(tokenTicker)
	denominationTicker = strings.ToLower(denominationTicker)

	if len(series) == 0 {
		return types.BacktestResult{}, nil, errors.Newf(errors.ErrCodeBacktestEmptySeries, "no bars to backtest for %s/%s", tokenTicker, denominationTicker)
	}

	if !series.IsSorted() {
		return types.BacktestResult{}, nil, errors.Newf(errors.ErrCodeInvalidParameter, "series for %s/%s is not strictly increasing in time", tokenTicker, denominationTicker)
	}

	if err := strat.Initialize(b.indicatorRegistry, series); err != nil {
		return types.BacktestResult{}, nil, err
	}

	symbol := strings.ToUpper(tokenTicker + denominationTicker)
	commission := commission_fee.GetCommissionFeeHandler(b.config.CommissionRate)
	state := NewBacktestState(b.config.StartingCash, commission, b.log)

	b.log.Info("Starting backtest",
		zap.String("symbol", symbol),
		zap.String("strategy", strat.Name()),
		zap.Int("bars", len(series)),
		zap.Float64("starting_cash", b.config.StartingCash),
	)

	for t, bar := range series {
		decision, err := strat.OnBar(t, state.Position())
		if err != nil {
			return types.BacktestResult{}, nil, err
		}

		if decision.IsSome() {
			order := types.Order{
				ID:           "",
				Symbol:       symbol,
				Side:         decision.Unwrap().Side,
				Price:        bar.Close,
				Time:         bar.Time,
				StrategyName: strat.Name(),
				Reason:       decision.Unwrap().Reason,
			}

			if _, err := state.ExecuteOrder(order, t); err != nil {
				return types.BacktestResult{}, nil, err
			}
		}

		state.MarkBar(bar)
	}

	curve := state.EquityCurve()

	result := types.BacktestResult{
		TokenTicker:        tokenTicker,
		DenominationTicker: denominationTicker,
		StrategyName:       strat.Name(),
		AnnualReturns:      analytics.AnnualReturns(curve),
		SharpeRatio:        analytics.SharpeRatio(curve, b.config.RiskFreeRate, b.config.PeriodsPerYear),
		MaxDrawDown:        analytics.MaxDrawdown(curve),
		FinalCash:          state.Cash(),
		WithGraphs:         false,
		ReportPath:         optional.None[string](),
		EquityCurvePath:    optional.None[string](),
	}

	b.log.Info("Backtest finished",
		zap.String("symbol", symbol),
		zap.String("strategy", strat.Name()),
		zap.Int("trades", len(state.Trades())),
		zap.Float64("final_cash", state.Cash()),
		zap.Float64("final_equity", curve[len(curve)-1].Equity),
		zap.Float64("commission_paid", state.CommissionPaid()),
	)

	return result, curve, nil
}
