package domain

import "time"

// PositionSide is the direction of a breakout entry.
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// Opposite returns the other side.
func (s PositionSide) Opposite() PositionSide {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// BreakoutSignal is emitted when a qualified symbol's price crosses its
// opening-range boundary. EntryPrice is the crossed boundary and StopPrice
// the opposite one; the signal itself places no orders.
type BreakoutSignal struct {
	ID         string       `json:"id"` // UUID
	Symbol     string       `json:"symbol"`
	Side       PositionSide `json:"side"`
	EntryPrice float64      `json:"entry_price"`
	StopPrice  float64      `json:"stop_price"`
	LastPrice  float64      `json:"last_price"` // tick price that triggered the signal
	CreatedAt  time.Time    `json:"created_at"`
}
