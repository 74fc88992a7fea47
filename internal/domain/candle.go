package domain

import "time"

// Candle is one fixed-width OHLC bucket for a single symbol. Bucket is the
// wall-clock start of the bucket, truncated to the aggregation width.
// Within a per-symbol series buckets are unique and strictly increasing;
// only the most recent candle is ever mutated.
type Candle struct {
	Symbol string    `json:"symbol"`
	Bucket time.Time `json:"bucket"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
}

// BucketFor truncates ts to the start of its aggregation bucket.
func BucketFor(ts time.Time, width time.Duration) time.Time {
	return ts.Truncate(width)
}

// Update folds a subsequent price of the same bucket into the candle.
// Max/min are commutative so intra-bucket ordering does not affect
// high/low; close is last-write-wins on the assumption of ordered delivery.
func (c *Candle) Update(price float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}
