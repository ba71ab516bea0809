package commission_fee

// RateCommissionFee charges a flat fraction of the fill's notional value,
// the way crypto spot exchanges do.
type RateCommissionFee struct {
	rate float64
}

// NewRateCommissionFee creates a commission fee with the given rate, e.g.
// 0.001 for 0.1% per fill.
func NewRateCommissionFee(rate float64) CommissionFee {
	return &RateCommissionFee{
		rate: rate,
	}
}

// Calculate returns quantity * price * rate.
func (c *RateCommissionFee) Calculate(quantity float64, price float64) float64 {
	return quantity * price * c.rate
}
