package indicator

import (
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// KDJ implements the KDJ stochastic-momentum indicator: a rolling highest-high
// and lowest-low window, a bounded raw stochastic value (RSV), two exponentially
// smoothed lines K and D, and the combined oscillator J = 3K - 2D.
type KDJ struct {
	hPeriod   int
	lPeriod   int
	emaPeriod int
}

// NewKDJ creates a new KDJ indicator with default configuration.
func NewKDJ() *KDJ {
	return &KDJ{
		hPeriod:   14, // Default highest-high window
		lPeriod:   14, // Default lowest-low window
		emaPeriod: 3,  // Default smoothing period for K and D
	}
}

// Name returns the name of the indicator.
func (k *KDJ) Name() types.IndicatorType {
	return types.IndicatorTypeKDJ
}

// Config configures the KDJ indicator. Expected parameters:
// hPeriod (int), lPeriod (int), emaPeriod (int).
func (k *KDJ) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 3 parameters: hPeriod (int), lPeriod (int), emaPeriod (int)")
	}

	periods := make([]int, 3)

	for i, param := range params {
		period, ok := param.(int)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for period parameter %d, expected int", i)
		}

		if period <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
		}

		periods[i] = period
	}

	k.hPeriod = periods[0]
	k.lPeriod = periods[1]
	k.emaPeriod = periods[2]

	return nil
}

// Compute derives the full indicator frame for the given series, aligned 1:1
// with the input bars. Partial lookback windows are allowed: early bars use
// however many observations exist. The computation is strictly causal.
func (k *KDJ) Compute(series types.Series) ([]types.KDJValue, error) {
	if k.hPeriod <= 0 || k.lPeriod <= 0 || k.emaPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "KDJ periods must be positive, got h=%d l=%d ema=%d", k.hPeriod, k.lPeriod, k.emaPeriod)
	}

	frame := make([]types.KDJValue, len(series))
	rsv := make([]float64, len(series))

	for t, bar := range series {
		highestHigh := rollingHigh(series, t, k.hPeriod)
		lowestLow := rollingLow(series, t, k.lPeriod)

		// Flat windows yield a neutral oscillator value of 0 rather than a
		// division by zero. This is a defined policy, not an error.
		value := 0.0
		if highestHigh != lowestLow {
			value = 100.0 * (bar.Close - lowestLow) / (highestHigh - lowestLow)
		}

		rsv[t] = value
		frame[t] = types.KDJValue{
			Time:        bar.Time,
			HighestHigh: highestHigh,
			LowestLow:   lowestLow,
			RSV:         value,
			K:           0,
			D:           0,
			J:           0,
		}
	}

	kLine := emaSeries(rsv, k.emaPeriod)
	dLine := emaSeries(kLine, k.emaPeriod)

	for t := range frame {
		frame[t].K = kLine[t]
		frame[t].D = dLine[t]
		frame[t].J = 3.0*kLine[t] - 2.0*dLine[t]
	}

	return frame, nil
}

// rollingHigh returns the maximum high over the window ending at index t.
func rollingHigh(series types.Series, t int, period int) float64 {
	start := t - period + 1
	if start < 0 {
		start = 0
	}

	highest := series[start].High
	for i := start + 1; i <= t; i++ {
		if series[i].High > highest {
			highest = series[i].High
		}
	}

	return highest
}

// rollingLow returns the minimum low over the window ending at index t.
func rollingLow(series types.Series, t int, period int) float64 {
	start := t - period + 1
	if start < 0 {
		start = 0
	}

	lowest := series[start].Low
	for i := start + 1; i <= t; i++ {
		if series[i].Low < lowest {
			lowest = series[i].Low
		}
	}

	return lowest
}

// emaSeries computes the exponential moving average of values with
// alpha = 2/(period+1), seeded with the first observation.
func emaSeries(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}

	alpha := 2.0 / float64(period+1)

	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}

	return result
}
