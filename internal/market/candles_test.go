package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func TestAggregatorAppendsNewBuckets(t *testing.T) {
	agg := NewAggregator(time.Minute)

	agg.OnTick("RELIANCE", 100.0, base.Add(10*time.Second))
	agg.OnTick("RELIANCE", 101.0, base.Add(70*time.Second))
	agg.OnTick("RELIANCE", 102.0, base.Add(130*time.Second))

	s := agg.Series("RELIANCE")
	require.Len(t, s, 3)
	for i, c := range s {
		assert.Equal(t, base.Add(time.Duration(i)*time.Minute), c.Bucket)
		assert.Equal(t, "RELIANCE", c.Symbol)
	}
	// Earlier candles are frozen at their single observation.
	assert.Equal(t, 100.0, s[0].Open)
	assert.Equal(t, 100.0, s[0].Close)
}

func TestAggregatorUpdatesCurrentBucket(t *testing.T) {
	agg := NewAggregator(time.Minute)

	agg.OnTick("TCS", 100.0, base.Add(5*time.Second))
	agg.OnTick("TCS", 103.0, base.Add(20*time.Second))
	agg.OnTick("TCS", 99.0, base.Add(40*time.Second))
	agg.OnTick("TCS", 101.0, base.Add(59*time.Second))

	s := agg.Series("TCS")
	require.Len(t, s, 1)
	c := s[0]
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 103.0, c.High)
	assert.Equal(t, 99.0, c.Low)
	assert.Equal(t, 101.0, c.Close)
	assert.GreaterOrEqual(t, c.High, c.Open)
	assert.GreaterOrEqual(t, c.High, c.Close)
	assert.LessOrEqual(t, c.Low, c.Open)
	assert.LessOrEqual(t, c.Low, c.Close)
}

func TestAggregatorKeepsSymbolsSeparate(t *testing.T) {
	agg := NewAggregator(time.Minute)

	agg.OnTick("A", 10, base)
	agg.OnTick("B", 20, base)

	require.Len(t, agg.Series("A"), 1)
	require.Len(t, agg.Series("B"), 1)
	assert.Equal(t, 10.0, agg.Series("A")[0].Open)
	assert.Equal(t, 20.0, agg.Series("B")[0].Open)
}

func TestAggregatorWindowHalfOpen(t *testing.T) {
	agg := NewAggregator(time.Minute)
	for i := 0; i < 6; i++ {
		agg.OnTick("INFY", 100+float64(i), base.Add(time.Duration(i)*time.Minute))
	}

	from := base.Add(1 * time.Minute)
	to := base.Add(4 * time.Minute)
	window := agg.Window("INFY", from, to)

	require.Len(t, window, 3)
	assert.Equal(t, from, window[0].Bucket)
	// The bucket at the upper bound is excluded.
	assert.Equal(t, base.Add(3*time.Minute), window[2].Bucket)
}

func TestAggregatorSnapshotIsACopy(t *testing.T) {
	agg := NewAggregator(time.Minute)
	agg.OnTick("HDFC", 50, base)

	snap := agg.Snapshot()
	snap["HDFC"][0].Close = 999

	assert.Equal(t, 50.0, agg.Series("HDFC")[0].Close)
}
