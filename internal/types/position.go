package types

// PositionStatus is the state of the single-asset position state machine.
// There is no shorting and no pyramiding: at most one open position exists.
type PositionStatus string

const (
	PositionStatusFlat PositionStatus = "FLAT"
	PositionStatusLong PositionStatus = "LONG"
)

// Position describes the current position. EntryPrice and EntryBarIndex are
// meaningful only while Status is LONG.
type Position struct {
	Status        PositionStatus
	EntryPrice    float64
	EntryBarIndex int
}

// NewFlatPosition returns the initial position.
func NewFlatPosition() Position {
	return Position{
		Status:        PositionStatusFlat,
		EntryPrice:    0,
		EntryBarIndex: 0,
	}
}
