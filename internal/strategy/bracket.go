package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"orbot/internal/domain"
)

// BuildBracket converts a breakout signal into an entry + stop + target
// order triple sized from a fixed currency risk budget.
//
// Quantity risks at most riskPerTrade between entry and stop, floored, with
// a minimum of one unit. The target mirrors the stop distance on the other
// side of the entry (1:1 reward-to-risk).
func BuildBracket(sig domain.BreakoutSignal, riskPerTrade float64, now time.Time) domain.Bracket {
	riskPerUnit := math.Abs(sig.EntryPrice - sig.StopPrice)
	qty := int64(1)
	if riskPerUnit > 0 {
		if q := int64(math.Floor(riskPerTrade / riskPerUnit)); q > 1 {
			qty = q
		}
	}

	var target float64
	if sig.Side == domain.SideLong {
		target = sig.EntryPrice + (sig.EntryPrice - sig.StopPrice)
	} else {
		target = sig.EntryPrice - (sig.StopPrice - sig.EntryPrice)
	}

	id := uuid.New().String()
	entrySide := domain.EntrySide(sig.Side)
	exitSide := domain.ExitSide(sig.Side)

	return domain.Bracket{
		ID:       id,
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Quantity: qty,
		Entry: domain.OrderRequest{
			Symbol:   sig.Symbol,
			Side:     entrySide,
			Quantity: qty,
			Type:     domain.OrderTypeLimit,
			Price:    sig.EntryPrice,
			Tag:      legTag(id, domain.LegEntry),
		},
		Stop: domain.OrderRequest{
			Symbol:       sig.Symbol,
			Side:         exitSide,
			Quantity:     qty,
			Type:         domain.OrderTypeStopMarket,
			TriggerPrice: sig.StopPrice,
			Tag:          legTag(id, domain.LegStop),
		},
		Target: domain.OrderRequest{
			Symbol:   sig.Symbol,
			Side:     exitSide,
			Quantity: qty,
			Type:     domain.OrderTypeLimit,
			Price:    target,
			Tag:      legTag(id, domain.LegTarget),
		},
		BuiltAt: now,
	}
}

func legTag(bracketID string, leg domain.BracketLeg) string {
	return fmt.Sprintf("%s:%s", bracketID, leg)
}
