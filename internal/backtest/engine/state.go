package engine

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/backtest/engine/commission_fee"
	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// BacktestState owns everything one simulation pass mutates: cash, the held
// quantity, the position, and the realized equity curve. It is scoped to a
// single pass over one series and is never shared between passes.
type BacktestState struct {
	cash           float64
	quantityHeld   float64
	commissionPaid float64
	position       types.Position
	equityCurve    []types.EquityPoint
	trades         []types.Trade
	commission     commission_fee.CommissionFee
	validate       *validator.Validate
	log            *logger.Logger
}

// NewBacktestState creates the state for one pass with the given starting cash.
func NewBacktestState(startingCash float64, commission commission_fee.CommissionFee, log *logger.Logger) *BacktestState {
	return &BacktestState{
		cash:           startingCash,
		quantityHeld:   0,
		commissionPaid: 0,
		position:       types.NewFlatPosition(),
		equityCurve:    nil,
		trades:         nil,
		commission:     commission,
		validate:       validator.New(),
		log:            log,
	}
}

// ExecuteOrder fills a market order at its price with full-equity sizing.
//
// BUY sizes the position as cash/price (fractional quantities permitted) and
// deducts the commission afterwards, so with a nonzero commission rate the
// cash balance ends the fill at exactly -commission. SELL liquidates the
// entire held quantity.
//
// A BUY while LONG or a SELL while FLAT is a defect in the position state
// machine, not a market condition; it aborts the pass.
func (s *BacktestState) ExecuteOrder(order types.Order, barIndex int) (types.Trade, error) {
	order.ID = uuid.New().String()

	if err := s.validate.Struct(order); err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeInvalidOrder, "order failed validation", err)
	}

	switch order.Side {
	case types.OrderSideBuy:
		return s.executeBuy(order, barIndex)
	case types.OrderSideSell:
		return s.executeSell(order)
	default:
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidOrder, "unknown order side: %s", order.Side)
	}
}

func (s *BacktestState) executeBuy(order types.Order, barIndex int) (types.Trade, error) {
	if s.position.Status != types.PositionStatusFlat {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvariantViolation, "BUY received while already %s", s.position.Status)
	}

	quantity := s.cash / order.Price
	commission := s.commission.Calculate(quantity, order.Price)

	s.cash = s.cash - quantity*order.Price - commission
	s.quantityHeld = quantity
	s.commissionPaid += commission
	s.position = types.Position{
		Status:        types.PositionStatusLong,
		EntryPrice:    order.Price,
		EntryBarIndex: barIndex,
	}

	trade := types.Trade{
		Order:         order,
		Quantity:      quantity,
		Commission:    commission,
		CashAfterFill: s.cash,
	}
	s.trades = append(s.trades, trade)

	s.log.Info("BUY executed",
		zap.String("symbol", order.Symbol),
		zap.Float64("price", order.Price),
		zap.Float64("quantity", quantity),
		zap.Float64("commission", commission),
		zap.Float64("cash", s.cash),
	)

	return trade, nil
}

func (s *BacktestState) executeSell(order types.Order) (types.Trade, error) {
	if s.position.Status != types.PositionStatusLong {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvariantViolation, "SELL received while %s", s.position.Status)
	}

	quantity := s.quantityHeld
	proceeds := quantity * order.Price
	commission := s.commission.Calculate(quantity, order.Price)

	s.cash += proceeds - commission
	s.quantityHeld = 0
	s.commissionPaid += commission
	s.position = types.NewFlatPosition()

	trade := types.Trade{
		Order:         order,
		Quantity:      quantity,
		Commission:    commission,
		CashAfterFill: s.cash,
	}
	s.trades = append(s.trades, trade)

	s.log.Info("SELL executed",
		zap.String("symbol", order.Symbol),
		zap.Float64("price", order.Price),
		zap.Float64("quantity", quantity),
		zap.Float64("commission", commission),
		zap.Float64("cash", s.cash),
	)

	return trade, nil
}

// MarkBar appends the end-of-bar equity point. Called once per bar, trade or
// no trade, so the curve is aligned 1:1 with the series.
func (s *BacktestState) MarkBar(bar types.MarketData) {
	s.equityCurve = append(s.equityCurve, types.EquityPoint{
		Time:   bar.Time,
		Equity: s.cash + s.quantityHeld*bar.Close,
	})
}

// Cash returns the current cash balance.
func (s *BacktestState) Cash() float64 {
	return s.cash
}

// QuantityHeld returns the currently held quantity.
func (s *BacktestState) QuantityHeld() float64 {
	return s.quantityHeld
}

// CommissionPaid returns the running commission total.
func (s *BacktestState) CommissionPaid() float64 {
	return s.commissionPaid
}

// Position returns the current position.
func (s *BacktestState) Position() types.Position {
	return s.position
}

// EquityCurve returns the realized equity curve so far.
func (s *BacktestState) EquityCurve() []types.EquityPoint {
	return s.equityCurve
}

// Trades returns all fills of the pass in order.
func (s *BacktestState) Trades() []types.Trade {
	return s.trades
}
