package types

import "time"

// IndicatorType identifies a registered indicator.
type IndicatorType string

const (
	IndicatorTypeKDJ IndicatorType = "kdj"
)

// KDJValue holds the per-bar derived values of the KDJ stochastic-momentum
// indicator, aligned 1:1 with the source bar by date.
type KDJValue struct {
	Time        time.Time
	HighestHigh float64
	LowestLow   float64
	RSV         float64
	K           float64
	D           float64
	J           float64
}
