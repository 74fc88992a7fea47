package market

import (
	"log/slog"
	"time"

	"orbot/internal/domain"
)

// Qualifier evaluates, once per symbol, whether the opening-range window is
// tight enough to trade breakouts on. A verdict is permanent; TryQualify is
// cheap to call on every tick and no-ops once a symbol is decided.
type Qualifier struct {
	windowStart  time.Time // market-open bucket
	windowEnd    time.Time // first-candle-end bucket (exclusive)
	wantCandles  int
	thresholdPct float64

	verdicts map[string]*domain.OpeningRange
	logger   *slog.Logger
}

// QualifierConfig carries the opening-range parameters.
type QualifierConfig struct {
	MarketOpen     time.Time
	FirstCandleEnd time.Time
	CandleWidth    time.Duration
	Candles        int     // exact candle count the window must hold
	ThresholdPct   float64 // max volatility % to qualify
}

// NewQualifier creates a Qualifier. The window is the half-open bucket
// interval [marketOpenBucket, firstCandleEndBucket).
func NewQualifier(cfg QualifierConfig, logger *slog.Logger) *Qualifier {
	return &Qualifier{
		windowStart:  domain.BucketFor(cfg.MarketOpen, cfg.CandleWidth),
		windowEnd:    domain.BucketFor(cfg.FirstCandleEnd, cfg.CandleWidth),
		wantCandles:  cfg.Candles,
		thresholdPct: cfg.ThresholdPct,
		verdicts:     make(map[string]*domain.OpeningRange),
		logger:       logger.With(slog.String("component", "opening_range")),
	}
}

// Due reports whether the opening window has closed, i.e. verdicts can be
// attempted at time now.
func (q *Qualifier) Due(now time.Time) bool {
	return !now.Before(q.windowEnd)
}

// WindowStart returns the market-open bucket (inclusive window bound).
func (q *Qualifier) WindowStart() time.Time { return q.windowStart }

// WindowEnd returns the first-candle-end bucket (exclusive window bound).
func (q *Qualifier) WindowEnd() time.Time { return q.windowEnd }

// WantCandles returns the exact candle count the window must hold.
func (q *Qualifier) WantCandles() int { return q.wantCandles }

// Get returns the stored verdict for symbol, or nil if the symbol has not
// been evaluated.
func (q *Qualifier) Get(symbol string) *domain.OpeningRange {
	return q.verdicts[symbol]
}

// TryQualify evaluates the symbol's opening range if it is due. It proceeds
// only when now has passed the window end and the symbol is undecided.
// The window must contain exactly the configured candle count; with fewer
// (feed gap) or more (bucket misconfiguration) no decision is made and the
// check is simply retried on the next tick. A symbol whose window never
// holds the exact count stays unevaluated for the whole session.
func (q *Qualifier) TryQualify(symbol string, candles []domain.Candle, now time.Time) (*domain.OpeningRange, bool) {
	if now.Before(q.windowEnd) {
		return nil, false
	}
	if r := q.verdicts[symbol]; r != nil {
		return r, false
	}

	window := candles[:0:0]
	for _, c := range candles {
		if !c.Bucket.Before(q.windowStart) && c.Bucket.Before(q.windowEnd) {
			window = append(window, c)
		}
	}
	if len(window) != q.wantCandles {
		return nil, false
	}

	r := &domain.OpeningRange{
		Symbol:    symbol,
		High:      window[0].High,
		Low:       window[0].Low,
		Open:      window[0].Open,
		DecidedAt: now,
	}
	for _, c := range window[1:] {
		if c.High > r.High {
			r.High = c.High
		}
		if c.Low < r.Low {
			r.Low = c.Low
		}
	}
	r.VolatilityPct = (r.High - r.Low) / r.Open * 100
	r.Qualified = r.VolatilityPct < q.thresholdPct
	q.verdicts[symbol] = r

	q.logger.Info("opening range decided",
		slog.String("symbol", symbol),
		slog.Float64("high", r.High),
		slog.Float64("low", r.Low),
		slog.Float64("volatility_pct", r.VolatilityPct),
		slog.Bool("qualified", r.Qualified),
	)
	return r, true
}

// Snapshot copies all verdicts, for the end-of-session archive.
func (q *Qualifier) Snapshot() map[string]*domain.OpeningRange {
	out := make(map[string]*domain.OpeningRange, len(q.verdicts))
	for sym, r := range q.verdicts {
		cp := *r
		out[sym] = &cp
	}
	return out
}
