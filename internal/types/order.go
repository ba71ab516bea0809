package types

import "time"

// OrderSide is the direction of an order intent.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Order is a market order intent emitted by a strategy. Only market orders
// exist in this system; the fill price is the close of the decision bar.
type Order struct {
	// ID is assigned by the execution layer when the order is accepted.
	ID string `validate:"required,uuid4"`
	// Symbol is the token/denomination pair the order trades.
	Symbol string `validate:"required"`
	// Side is BUY or SELL.
	Side OrderSide `validate:"required,oneof=BUY SELL"`
	// Price is the simulated fill price.
	Price float64 `validate:"required,gt=0"`
	// Time is the date of the bar the decision was made on.
	Time time.Time `validate:"required"`
	// StrategyName identifies the emitting strategy.
	StrategyName string `validate:"required"`
	// Reason is a human-readable explanation of the signal.
	Reason string
}

// Trade is a filled order together with its execution details.
type Trade struct {
	Order
	Quantity      float64
	Commission    float64
	CashAfterFill float64
}
