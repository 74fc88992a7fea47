package market

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQualifier(t *testing.T) *Qualifier {
	t.Helper()
	return NewQualifier(QualifierConfig{
		MarketOpen:     base,
		FirstCandleEnd: base.Add(5 * time.Minute),
		CandleWidth:    time.Minute,
		Candles:        5,
		ThresholdPct:   1.0,
	}, testLogger())
}

// windowCandles builds n one-minute candles starting at base, all with the
// given open and flat OHLC except the listed highs/lows applied in order.
func windowCandles(n int, open float64, highs, lows []float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		h, l := open, open
		if i < len(highs) {
			h = highs[i]
		}
		if i < len(lows) {
			l = lows[i]
		}
		out[i] = domain.Candle{
			Symbol: "X",
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Open:   open,
			High:   h,
			Low:    l,
			Close:  open,
		}
	}
	return out
}

func TestQualifierWaitsForWindowEnd(t *testing.T) {
	q := newTestQualifier(t)
	candles := windowCandles(5, 100, nil, nil)

	r, decided := q.TryQualify("X", candles, base.Add(4*time.Minute))
	assert.Nil(t, r)
	assert.False(t, decided)
	assert.Nil(t, q.Get("X"))
}

func TestQualifierRequiresExactCandleCount(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(5 * time.Minute)

	r, decided := q.TryQualify("X", windowCandles(4, 100, nil, nil), now)
	assert.Nil(t, r)
	assert.False(t, decided)

	// Six 30-second buckets inside the window (a width mismatch against the
	// expected one-minute candles) is just as inconclusive as four.
	over := make([]domain.Candle, 6)
	for i := range over {
		over[i] = domain.Candle{
			Symbol: "X",
			Bucket: base.Add(time.Duration(i) * 30 * time.Second),
			Open:   100, High: 100, Low: 100, Close: 100,
		}
	}
	r, decided = q.TryQualify("X", over, now)
	assert.Nil(t, r)
	assert.False(t, decided)
	assert.Nil(t, q.Get("X"))
}

func TestQualifierQualifiesTightRange(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(5 * time.Minute)

	// High 100.7, low 100.0 on open 100.0: volatility 0.7% < 1.0%.
	candles := windowCandles(5, 100, []float64{100.2, 100.7, 100.5, 100.3, 100.1}, nil)
	r, decided := q.TryQualify("X", candles, now)

	require.NotNil(t, r)
	assert.True(t, decided)
	assert.True(t, r.Qualified)
	assert.Equal(t, 100.7, r.High)
	assert.Equal(t, 100.0, r.Low)
	assert.Equal(t, 100.0, r.Open)
	assert.InDelta(t, 0.7, r.VolatilityPct, 1e-9)
	assert.Equal(t, now, r.DecidedAt)
}

func TestQualifierDisqualifiesWideRange(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(5 * time.Minute)

	// High 101.5 on open 100: volatility 1.5%.
	candles := windowCandles(5, 100, []float64{101.5}, nil)
	r, decided := q.TryQualify("X", candles, now)

	require.NotNil(t, r)
	assert.True(t, decided)
	assert.False(t, r.Qualified)
	assert.InDelta(t, 1.5, r.VolatilityPct, 1e-9)
}

func TestQualifierThresholdIsExclusive(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(5 * time.Minute)

	// Volatility exactly 1.0% must not qualify.
	candles := windowCandles(5, 100, []float64{101.0}, nil)
	r, _ := q.TryQualify("X", candles, now)

	require.NotNil(t, r)
	assert.False(t, r.Qualified)
}

func TestQualifierVerdictIsPermanent(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(5 * time.Minute)

	candles := windowCandles(5, 100, nil, nil)
	first, decided := q.TryQualify("X", candles, now)
	require.NotNil(t, first)
	require.True(t, decided)

	// A later call with different candles must return the stored verdict.
	wide := windowCandles(5, 100, []float64{110}, nil)
	second, decided := q.TryQualify("X", wide, now.Add(time.Hour))
	assert.False(t, decided)
	assert.Same(t, first, second)
}

func TestQualifierIgnoresCandlesOutsideWindow(t *testing.T) {
	q := newTestQualifier(t)
	now := base.Add(10 * time.Minute)

	candles := windowCandles(5, 100, nil, nil)
	// A wild candle after the window must not affect the verdict.
	candles = append(candles, domain.Candle{
		Symbol: "X",
		Bucket: base.Add(7 * time.Minute),
		Open:   100, High: 150, Low: 50, Close: 100,
	})

	r, decided := q.TryQualify("X", candles, now)
	require.NotNil(t, r)
	assert.True(t, decided)
	assert.Equal(t, 100.0, r.High)
	assert.Equal(t, 100.0, r.Low)
}

func TestQualifierDue(t *testing.T) {
	q := newTestQualifier(t)
	assert.False(t, q.Due(base.Add(4*time.Minute)))
	assert.True(t, q.Due(base.Add(5*time.Minute)))
}
