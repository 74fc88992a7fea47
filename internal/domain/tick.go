package domain

import (
	"math"
	"time"
)

// Tick is a single last-traded-price update from the broker gateway feed.
type Tick struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// Valid reports whether the tick carries a usable price. Ticks with a
// non-finite or non-positive price are dropped by the engine, not treated
// as errors.
func (t Tick) Valid() bool {
	return t.Price > 0 && !math.IsInf(t.Price, 0) && !math.IsNaN(t.Price)
}
