package domain

import "time"

// SessionSummary is the one-row wrap-up written to the journal when the
// session reaches the Closed phase.
type SessionSummary struct {
	Date            string    `json:"date"` // YYYY-MM-DD in the session timezone
	TicksSeen       int64     `json:"ticks_seen"`
	TicksDropped    int64     `json:"ticks_dropped"`
	SignalsEmitted  int64     `json:"signals_emitted"`
	OrdersSubmitted int64     `json:"orders_submitted"`
	OrdersRejected  int64     `json:"orders_rejected"`
	SquareOffOrders int64     `json:"square_off_orders"`
	FeedLost        bool      `json:"feed_lost"`
	ClosedAt        time.Time `json:"closed_at"`
}

// SessionArchive is the end-of-session blob uploaded to object storage:
// every candle series, every opening-range verdict, and the final position
// slots. It is write-only output, never read back by this process.
type SessionArchive struct {
	Date      string                   `json:"date"`
	Candles   map[string][]Candle      `json:"candles"`
	Ranges    map[string]*OpeningRange `json:"ranges"`
	Positions map[string][]Position    `json:"positions"`
	Summary   SessionSummary           `json:"summary"`
}
