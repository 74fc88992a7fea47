package domain

import "time"

// OpeningRange is the permanent per-symbol verdict over the first candles of
// the session. It is created at most once per symbol and never mutated after
// creation; a symbol either qualifies, disqualifies, or (if the window never
// yields exactly the configured candle count) stays unevaluated all session.
type OpeningRange struct {
	Symbol        string    `json:"symbol"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"` // open of the first candle in the window
	VolatilityPct float64   `json:"volatility_pct"`
	Qualified     bool      `json:"qualified"`
	DecidedAt     time.Time `json:"decided_at"`
}
