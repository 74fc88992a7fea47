package strategy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbot/internal/domain"
)

func longSignal(entry, stop float64) domain.BreakoutSignal {
	return domain.BreakoutSignal{
		ID:         "sig-1",
		Symbol:     "X",
		Side:       domain.SideLong,
		EntryPrice: entry,
		StopPrice:  stop,
	}
}

func TestBuildBracketLongSizing(t *testing.T) {
	b := BuildBracket(longSignal(100, 95), 100, time.Now())

	// 100 / |100-95| = 20 units, target mirrors the 5-point stop distance.
	assert.Equal(t, int64(20), b.Quantity)
	assert.Equal(t, 105.0, b.Target.Price)
}

func TestBuildBracketShortSizing(t *testing.T) {
	sig := domain.BreakoutSignal{
		ID:         "sig-2",
		Symbol:     "X",
		Side:       domain.SideShort,
		EntryPrice: 100,
		StopPrice:  102,
	}
	b := BuildBracket(sig, 50, time.Now())

	// 50 / |100-102| = 25 units, target mirrors the 2-point stop distance
	// below the entry.
	assert.Equal(t, int64(25), b.Quantity)
	assert.Equal(t, 98.0, b.Target.Price)
}

func TestBuildBracketQuantityFloorsAtOne(t *testing.T) {
	// Risk budget smaller than one unit of risk still trades one unit.
	b := BuildBracket(longSignal(100, 90), 5, time.Now())
	assert.Equal(t, int64(1), b.Quantity)
}

func TestBuildBracketFractionalQuantityFloors(t *testing.T) {
	// 100 / 3 = 33.33 floors to 33.
	b := BuildBracket(longSignal(103, 100), 100, time.Now())
	assert.Equal(t, int64(33), b.Quantity)
}

func TestBuildBracketLegShape(t *testing.T) {
	now := time.Now()
	b := BuildBracket(longSignal(100.5, 100.0), 100, now)

	require.NotEmpty(t, b.ID)
	assert.Equal(t, "sig-1", b.SignalID)
	assert.Equal(t, now, b.BuiltAt)

	// Entry: buy limit at the crossed boundary.
	assert.Equal(t, domain.OrderSideBuy, b.Entry.Side)
	assert.Equal(t, domain.OrderTypeLimit, b.Entry.Type)
	assert.Equal(t, 100.5, b.Entry.Price)
	assert.Equal(t, b.Quantity, b.Entry.Quantity)

	// Stop: sell stop-market triggered at the opposite boundary.
	assert.Equal(t, domain.OrderSideSell, b.Stop.Side)
	assert.Equal(t, domain.OrderTypeStopMarket, b.Stop.Type)
	assert.Equal(t, 100.0, b.Stop.TriggerPrice)

	// Target: sell limit mirroring the stop distance.
	assert.Equal(t, domain.OrderSideSell, b.Target.Side)
	assert.Equal(t, domain.OrderTypeLimit, b.Target.Type)
	assert.Equal(t, 101.0, b.Target.Price)

	// Tags tie each leg back to the bracket.
	for leg, tag := range map[domain.BracketLeg]string{
		domain.LegEntry:  b.Entry.Tag,
		domain.LegStop:   b.Stop.Tag,
		domain.LegTarget: b.Target.Tag,
	} {
		assert.True(t, strings.HasPrefix(tag, b.ID), "tag %q missing bracket id", tag)
		assert.True(t, strings.HasSuffix(tag, string(leg)), "tag %q missing leg name", tag)
	}
}

func TestBuildBracketShortLegSides(t *testing.T) {
	sig := domain.BreakoutSignal{
		Symbol:     "X",
		Side:       domain.SideShort,
		EntryPrice: 100,
		StopPrice:  100.5,
	}
	b := BuildBracket(sig, 100, time.Now())

	assert.Equal(t, domain.OrderSideSell, b.Entry.Side)
	assert.Equal(t, domain.OrderSideBuy, b.Stop.Side)
	assert.Equal(t, domain.OrderSideBuy, b.Target.Side)
}
