package domain

import "time"

// PositionStatus tracks whether a position slot is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is one admitted entry slot for a (symbol, side) pair. It is
// created the instant a breakout is admitted, before the entry order is
// confirmed, so the per-side cap holds even while an order is in flight.
// OpenQty stays zero locally; the gateway's position snapshot is the
// authority on filled quantity.
type Position struct {
	Symbol     string         `json:"symbol"`
	Side       PositionSide   `json:"side"`
	OpenQty    int64          `json:"open_qty"`
	EntryPrice float64        `json:"entry_price"` // range boundary used for stop/target math
	Quantity   int64          `json:"quantity"`    // ordered quantity
	Status     PositionStatus `json:"status"`
	BracketID  string         `json:"bracket_id"`
	OpenedAt   time.Time      `json:"opened_at"`
	ClosedAt   *time.Time     `json:"closed_at,omitempty"`
}

// NetPosition is one entry of the gateway's open-position snapshot.
// A positive NetQuantity is long exposure, negative is short.
type NetPosition struct {
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	NetQuantity int64  `json:"net_quantity"`
}
