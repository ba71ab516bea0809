package indicator

import (
	"github.com/rxtech-lab/momentum-backtest/internal/types"
)

// Indicator interface defines methods that any technical indicator must implement.
// Indicators are pure functions of the price history up to each bar: they must
// never look ahead.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config configures the indicator parameters
	Config(params ...any) error
}
