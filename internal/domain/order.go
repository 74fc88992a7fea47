package domain

import "time"

// OrderSide indicates whether an order buys or sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// EntrySide maps a position side to the order side that opens it.
func EntrySide(s PositionSide) OrderSide {
	if s == SideLong {
		return OrderSideBuy
	}
	return OrderSideSell
}

// ExitSide maps a position side to the order side that closes it.
func ExitSide(s PositionSide) OrderSide {
	return EntrySide(s.Opposite())
}

// OrderType is the execution style of an order leg.
type OrderType string

const (
	OrderTypeLimit      OrderType = "limit"
	OrderTypeMarket     OrderType = "market"
	OrderTypeStopMarket OrderType = "stop_market"
)

// BracketLeg names the role of an order within a bracket.
type BracketLeg string

const (
	LegEntry  BracketLeg = "entry"
	LegStop   BracketLeg = "stop"
	LegTarget BracketLeg = "target"
)

// OrderRequest is a single order submitted to the broker gateway.
// TriggerPrice is only meaningful for stop_market orders.
type OrderRequest struct {
	Symbol       string    `json:"symbol"`
	Side         OrderSide `json:"side"`
	Quantity     int64     `json:"quantity"`
	Type         OrderType `json:"type"`
	Price        float64   `json:"price,omitempty"`
	TriggerPrice float64   `json:"trigger_price,omitempty"`
	Tag          string    `json:"tag,omitempty"` // bracket ID + leg, for broker-side reconciliation
}

// OrderResult is the gateway's accept/reject answer. Fill reconciliation
// beyond acceptance is out of scope; the authoritative position quantity
// comes from the gateway's position snapshot.
type OrderResult struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Bracket is the linked entry + stop + target triple built from one breakout
// signal. The entry leg is all-or-nothing: if it is rejected the stop and
// target legs are never submitted.
type Bracket struct {
	ID       string       `json:"id"` // UUID
	SignalID string       `json:"signal_id"`
	Symbol   string       `json:"symbol"`
	Side     PositionSide `json:"side"`
	Quantity int64        `json:"quantity"`
	Entry    OrderRequest `json:"entry"`
	Stop     OrderRequest `json:"stop"`
	Target   OrderRequest `json:"target"`
	BuiltAt  time.Time    `json:"built_at"`
}
