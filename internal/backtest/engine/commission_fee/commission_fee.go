package commission_fee

// CommissionFee calculates the commission for a fill with the given quantity
// and price. The fee is denominated in the quote asset.
type CommissionFee interface {
	Calculate(quantity float64, price float64) float64
}

// GetCommissionFeeHandler returns the fee model for the configured rate.
// A rate of zero selects the zero-commission model.
func GetCommissionFeeHandler(rate float64) CommissionFee {
	if rate == 0 {
		return NewZeroCommissionFee()
	}

	return NewRateCommissionFee(rate)
}
