// Package analytics derives performance metrics from a realized equity curve.
// All metrics are pure functions of the curve; numeric degenerate cases
// (flat curves, zero-variance returns) produce defined sentinel values,
// never errors.
package analytics

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/momentum-backtest/internal/types"
)

// MaxDrawdown returns the maximum percentage decline from a running equity
// peak, as a positive magnitude in [0, 100] for any finite all-positive
// curve. Consumers negate it for display.
func MaxDrawdown(curve []types.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDrawdown := 0.0

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak == 0 {
			continue
		}

		drawdown := (peak - point.Equity) / peak * 100.0
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// AnnualReturns returns, for each calendar year present in the curve, the
// fraction equity[lastDayOfYear]/equity[firstDayOfYear] - 1, in
// chronological order. The curve must be in chronological order.
func AnnualReturns(curve []types.EquityPoint) []types.AnnualReturn {
	if len(curve) == 0 {
		return nil
	}

	var (
		returns   []types.AnnualReturn
		yearFirst float64
		yearLast  float64
		year      int
	)

	flush := func() {
		value := 0.0
		if yearFirst != 0 {
			value = yearLast/yearFirst - 1.0
		}

		returns = append(returns, types.AnnualReturn{
			Year:   year,
			Return: value,
		})
	}

	for i, point := range curve {
		pointYear := point.Time.Year()

		if i == 0 || pointYear != year {
			if i != 0 {
				flush()
			}

			year = pointYear
			yearFirst = point.Equity
		}

		yearLast = point.Equity
	}

	flush()

	return returns
}

// SharpeRatio computes the annualized Sharpe ratio over the periodic return
// series derived from the equity curve:
//
//	sharpe = mean(r - riskFreeRate) / stdev(r) * sqrt(periodsPerYear)
//
// It is undefined (None, not an error) when fewer than two returns exist or
// the return series has zero variance, e.g. a pass with no trades.
func SharpeRatio(curve []types.EquityPoint, riskFreeRate float64, periodsPerYear int) optional.Option[float64] {
	returns := periodicReturns(curve)
	if len(returns) < 2 {
		return optional.None[float64]()
	}

	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)

	if stddev == 0 {
		return optional.None[float64]()
	}

	sharpe := (mean - riskFreeRate) / stddev * math.Sqrt(float64(periodsPerYear))

	return optional.Some(sharpe)
}

// periodicReturns derives the bar-to-bar return series of the curve. A zero
// equity point yields a zero return rather than an infinity.
func periodicReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		previous := curve[i-1].Equity
		if previous == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, curve[i].Equity/previous-1.0)
	}

	return returns
}

// computeMean calculates the arithmetic mean of the returns.
func computeMean(returns []float64) float64 {
	sum := 0.0
	for _, r := range returns {
		sum += r
	}

	return sum / float64(len(returns))
}

// computeStddev calculates the sample standard deviation (n-1 denominator).
func computeStddev(returns []float64, mean float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}

	sumSq := 0.0

	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(n-1))
}
