// Package strategy holds the breakout decision logic: turning a price update
// on a qualified symbol into a breakout signal, and turning a signal into a
// concrete bracket order intent.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"orbot/internal/domain"
)

// Admitter is the position-admission check consulted before a signal is
// emitted. Implemented by the position book.
type Admitter interface {
	CanEnter(symbol string, side domain.PositionSide) bool
}

// Detector compares ticks of qualified symbols against their stored opening
// range and emits breakout signals. It is stateless apart from its
// configuration; the range and admission state live with their owners.
type Detector struct {
	entryCutoff time.Time
	admit       Admitter
}

// NewDetector creates a Detector. No signal is emitted at or after
// entryCutoff.
func NewDetector(entryCutoff time.Time, admit Admitter) *Detector {
	return &Detector{entryCutoff: entryCutoff, admit: admit}
}

// OnPriceUpdate checks price against the symbol's qualified range and
// returns zero or more signals. Long and short conditions are evaluated
// independently; since range.High > range.Low they are mutually exclusive
// for any single price. Callers only invoke this for symbols whose range
// exists and qualified.
func (d *Detector) OnPriceUpdate(symbol string, price float64, now time.Time, rng *domain.OpeningRange) []domain.BreakoutSignal {
	if rng == nil || !rng.Qualified || !now.Before(d.entryCutoff) {
		return nil
	}

	var signals []domain.BreakoutSignal
	if price > rng.High && d.admit.CanEnter(symbol, domain.SideLong) {
		signals = append(signals, domain.BreakoutSignal{
			ID:         uuid.New().String(),
			Symbol:     symbol,
			Side:       domain.SideLong,
			EntryPrice: rng.High,
			StopPrice:  rng.Low,
			LastPrice:  price,
			CreatedAt:  now,
		})
	}
	if price < rng.Low && d.admit.CanEnter(symbol, domain.SideShort) {
		signals = append(signals, domain.BreakoutSignal{
			ID:         uuid.New().String(),
			Symbol:     symbol,
			Side:       domain.SideShort,
			EntryPrice: rng.Low,
			StopPrice:  rng.High,
			LastPrice:  price,
			CreatedAt:  now,
		})
	}
	return signals
}
