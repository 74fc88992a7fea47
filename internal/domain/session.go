package domain

// SessionPhase is the trading-session phase, a pure function of wall-clock
// time against four ordered cutoffs. Phases are monotonic within a session;
// Closed is terminal.
type SessionPhase int

const (
	PhasePreMarket SessionPhase = iota
	PhaseCandleFormation
	PhaseActiveTrading
	PhasePositionMonitoring
	PhaseClosed
)

func (p SessionPhase) String() string {
	switch p {
	case PhasePreMarket:
		return "pre_market"
	case PhaseCandleFormation:
		return "candle_formation"
	case PhaseActiveTrading:
		return "active_trading"
	case PhasePositionMonitoring:
		return "position_monitoring"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}
