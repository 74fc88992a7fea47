package engine

import (
	"fmt"
	"time"

	"orbot/internal/domain"
)

// SessionClock maps wall-clock time to a session phase using four ordered
// cutoff instants resolved for the current trading day. It is a pure
// function of time; no phase is ever revisited because the cutoffs are
// fixed for the session.
type SessionClock struct {
	Open           time.Time
	FirstCandleEnd time.Time
	EntryCutoff    time.Time
	Close          time.Time
}

// NewSessionClock validates cutoff ordering and returns the clock.
func NewSessionClock(open, firstCandleEnd, entryCutoff, close time.Time) (*SessionClock, error) {
	if !open.Before(firstCandleEnd) || !firstCandleEnd.Before(entryCutoff) || !entryCutoff.Before(close) {
		return nil, fmt.Errorf("engine: session cutoffs must be strictly ordered: open=%s first_candle_end=%s entry_cutoff=%s close=%s",
			open.Format(time.TimeOnly), firstCandleEnd.Format(time.TimeOnly),
			entryCutoff.Format(time.TimeOnly), close.Format(time.TimeOnly))
	}
	return &SessionClock{
		Open:           open,
		FirstCandleEnd: firstCandleEnd,
		EntryCutoff:    entryCutoff,
		Close:          close,
	}, nil
}

// PhaseAt returns the session phase at t.
func (c *SessionClock) PhaseAt(t time.Time) domain.SessionPhase {
	switch {
	case t.Before(c.Open):
		return domain.PhasePreMarket
	case t.Before(c.FirstCandleEnd):
		return domain.PhaseCandleFormation
	case t.Before(c.EntryCutoff):
		return domain.PhaseActiveTrading
	case t.Before(c.Close):
		return domain.PhasePositionMonitoring
	default:
		return domain.PhaseClosed
	}
}
