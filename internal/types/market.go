package types

import "time"

// MarketData is a single daily OHLCV bar. Immutable once ingested.
type MarketData struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// Series is an ordered sequence of daily bars. Insertion order is chronological
// order; dates are unique and strictly increasing. Calendar gaps are simply
// fewer observations, never interpolated.
type Series []MarketData

// IsSorted reports whether the series is strictly increasing in time.
func (s Series) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return false
		}
	}

	return true
}

// Closes returns the close prices of the series in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}

	return closes
}
