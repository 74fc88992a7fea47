package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbot/internal/domain"
)

var now = time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

func TestBookEnforcesPerSideCap(t *testing.T) {
	b := NewBook(1)

	assert.True(t, b.CanEnter("RELIANCE", domain.SideLong))
	b.RecordEntry("RELIANCE", domain.SideLong, "br-1", 100.5, 10, now)

	assert.False(t, b.CanEnter("RELIANCE", domain.SideLong))
	// The other side and other symbols are unaffected.
	assert.True(t, b.CanEnter("RELIANCE", domain.SideShort))
	assert.True(t, b.CanEnter("TCS", domain.SideLong))
}

func TestBookCapAboveOne(t *testing.T) {
	b := NewBook(2)

	b.RecordEntry("X", domain.SideShort, "br-1", 99, 5, now)
	assert.True(t, b.CanEnter("X", domain.SideShort))
	b.RecordEntry("X", domain.SideShort, "br-2", 98, 5, now)
	assert.False(t, b.CanEnter("X", domain.SideShort))
	assert.Equal(t, 2, b.OpenCount("X", domain.SideShort))
}

func TestBookReleaseFreesSlot(t *testing.T) {
	b := NewBook(1)
	b.RecordEntry("X", domain.SideLong, "br-1", 100, 10, now)

	released := b.Release("X", domain.SideLong, "br-1", now.Add(time.Second))
	assert.True(t, released)
	assert.True(t, b.CanEnter("X", domain.SideLong))
	assert.Equal(t, 0, b.OpenCount("X", domain.SideLong))

	// Releasing again is a no-op.
	assert.False(t, b.Release("X", domain.SideLong, "br-1", now))
}

func TestBookReleaseUnknownBracket(t *testing.T) {
	b := NewBook(1)
	b.RecordEntry("X", domain.SideLong, "br-1", 100, 10, now)

	assert.False(t, b.Release("X", domain.SideLong, "br-other", now))
	assert.Equal(t, 1, b.OpenCount("X", domain.SideLong))
}

func TestBookCloseAllBothSides(t *testing.T) {
	b := NewBook(2)
	b.RecordEntry("X", domain.SideLong, "br-1", 100, 10, now)
	b.RecordEntry("X", domain.SideShort, "br-2", 99, 10, now)
	b.RecordEntry("Y", domain.SideLong, "br-3", 50, 5, now)

	closed := b.CloseAll("X", now.Add(time.Hour))
	assert.Equal(t, 2, closed)
	assert.Equal(t, 0, b.OpenCount("X", domain.SideLong))
	assert.Equal(t, 0, b.OpenCount("X", domain.SideShort))
	// Other symbols untouched.
	assert.Equal(t, 1, b.OpenCount("Y", domain.SideLong))
}

func TestBookSnapshotIncludesClosedSlots(t *testing.T) {
	b := NewBook(1)
	p := b.RecordEntry("X", domain.SideLong, "br-1", 100, 10, now)
	require.Equal(t, domain.PositionStatusOpen, p.Status)
	b.Release("X", domain.SideLong, "br-1", now)

	snap := b.Snapshot()
	require.Len(t, snap["X"], 1)
	assert.Equal(t, domain.PositionStatusClosed, snap["X"][0].Status)
	require.NotNil(t, snap["X"][0].ClosedAt)
}

func TestBookSymbols(t *testing.T) {
	b := NewBook(1)
	b.RecordEntry("A", domain.SideLong, "br-1", 1, 1, now)
	b.RecordEntry("B", domain.SideShort, "br-2", 1, 1, now)

	assert.ElementsMatch(t, []string{"A", "B"}, b.Symbols())
}
