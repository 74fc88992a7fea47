// Package market owns the in-memory market state built from the tick feed:
// per-symbol candle series and opening-range verdicts. All types in this
// package are intentionally unsynchronized; they are owned by the engine
// loop, which is the single goroutine allowed to touch them.
package market

import (
	"time"

	"orbot/internal/domain"
)

// Aggregator folds ticks into fixed-width candles, one append-only series
// per symbol. Only the last candle of a series is ever mutated; once a newer
// bucket starts, all earlier candles are frozen.
type Aggregator struct {
	width  time.Duration
	series map[string][]domain.Candle
}

// NewAggregator creates an Aggregator with the given bucket width.
func NewAggregator(width time.Duration) *Aggregator {
	return &Aggregator{
		width:  width,
		series: make(map[string][]domain.Candle),
	}
}

// OnTick folds one price observation into the symbol's series. A tick in a
// new bucket appends a candle seeded with open=high=low=close=price; a tick
// in the current bucket updates high/low/close of the last candle.
func (a *Aggregator) OnTick(symbol string, price float64, ts time.Time) {
	bucket := domain.BucketFor(ts, a.width)
	s := a.series[symbol]

	if n := len(s); n > 0 && s[n-1].Bucket.Equal(bucket) {
		s[n-1].Update(price)
		return
	}

	a.series[symbol] = append(s, domain.Candle{
		Symbol: symbol,
		Bucket: bucket,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
	})
}

// Series returns the symbol's candle series in insertion (= time) order.
// The returned slice is the live backing array; callers must not mutate it.
func (a *Aggregator) Series(symbol string) []domain.Candle {
	return a.series[symbol]
}

// Window returns the candles whose bucket lies in the half-open interval
// [from, to).
func (a *Aggregator) Window(symbol string, from, to time.Time) []domain.Candle {
	var out []domain.Candle
	for _, c := range a.series[symbol] {
		if !c.Bucket.Before(from) && c.Bucket.Before(to) {
			out = append(out, c)
		}
	}
	return out
}

// Snapshot copies every series, for the end-of-session archive.
func (a *Aggregator) Snapshot() map[string][]domain.Candle {
	out := make(map[string][]domain.Candle, len(a.series))
	for sym, s := range a.series {
		cp := make([]domain.Candle, len(s))
		copy(cp, s)
		out[sym] = cp
	}
	return out
}
