package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/momentum-backtest/internal/indicator"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// KDJCross trades the crossover of the J line over the D line. It enters a
// long position on a golden cross (J crossing D from below) and exits when
// the spread turns down again. At most one position is open at any time.
type KDJCross struct {
	hPeriod   int
	lPeriod   int
	emaPeriod int

	frame []types.KDJValue
}

// NewKDJCross creates the KDJ crossover strategy with default parameters.
func NewKDJCross() *KDJCross {
	return &KDJCross{
		hPeriod:   14,
		lPeriod:   14,
		emaPeriod: 3,
		frame:     nil,
	}
}

// Name returns the strategy name.
func (s *KDJCross) Name() string {
	return StrategyKDJ
}

// SetPeriods overrides the default indicator windows. Must be called before
// Initialize.
func (s *KDJCross) SetPeriods(hPeriod, lPeriod, emaPeriod int) error {
	if hPeriod <= 0 || lPeriod <= 0 || emaPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "periods must be positive integers, got h=%d l=%d ema=%d", hPeriod, lPeriod, emaPeriod)
	}

	s.hPeriod = hPeriod
	s.lPeriod = lPeriod
	s.emaPeriod = emaPeriod

	return nil
}

// Initialize computes the indicator frame for the pass. The whole frame is
// derived up front; OnBar only ever reads values at t and t-1, so causality
// is preserved by construction.
func (s *KDJCross) Initialize(registry indicator.IndicatorRegistry, series types.Series) error {
	registered, err := registry.GetIndicator(types.IndicatorTypeKDJ)
	if err != nil {
		return err
	}

	kdj, ok := registered.(*indicator.KDJ)
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "indicator %s is not a KDJ indicator", types.IndicatorTypeKDJ)
	}

	if err := kdj.Config(s.hPeriod, s.lPeriod, s.emaPeriod); err != nil {
		return err
	}

	frame, err := kdj.Compute(series)
	if err != nil {
		return err
	}

	s.frame = frame

	return nil
}

// OnBar evaluates the crossover rule for bar t.
//
// With diffYesterday = J[t-1]-D[t-1] and diffToday = J[t]-D[t]:
//   - FLAT -> BUY iff diffYesterday < 0 AND diffToday > 0. Strict on both
//     sides: an exact touch of zero does not trigger.
//   - LONG -> SELL iff diffYesterday > 0 OR diffToday < 0. The asymmetry
//     with the buy rule (OR vs AND) is intentional.
func (s *KDJCross) OnBar(t int, position types.Position) (optional.Option[Decision], error) {
	if t >= len(s.frame) {
		return optional.None[Decision](), errors.Newf(errors.ErrCodeInsufficientData, "bar index %d out of range for frame of length %d", t, len(s.frame))
	}

	// Warm-up: the rule needs both today's and yesterday's values.
	if t < 1 {
		return optional.None[Decision](), nil
	}

	diffYesterday := s.frame[t-1].J - s.frame[t-1].D
	diffToday := s.frame[t].J - s.frame[t].D

	switch position.Status {
	case types.PositionStatusFlat:
		if diffYesterday < 0 && diffToday > 0 {
			return optional.Some(Decision{
				Side:   types.OrderSideBuy,
				Reason: fmt.Sprintf("golden cross: J-D %.4f -> %.4f", diffYesterday, diffToday),
			}), nil
		}
	case types.PositionStatusLong:
		if diffYesterday > 0 || diffToday < 0 {
			return optional.Some(Decision{
				Side:   types.OrderSideSell,
				Reason: fmt.Sprintf("cross down: J-D %.4f -> %.4f", diffYesterday, diffToday),
			}), nil
		}
	}

	return optional.None[Decision](), nil
}
