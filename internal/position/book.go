// Package position tracks admitted entry slots per symbol and side and
// enforces the per-side cap. The Book is owned by the engine loop and is
// deliberately unsynchronized; admission and release always happen on the
// same serialized event stream.
package position

import (
	"time"

	"orbot/internal/domain"
)

type slotKey struct {
	symbol string
	side   domain.PositionSide
}

// Book counts open entry slots per (symbol, side). A slot is recorded at
// breakout admission, before the entry order is confirmed, so the cap holds
// even while an order is in flight. If the entry leg is rejected the slot is
// released within the same serialized stream that created it.
type Book struct {
	maxPerSide int
	slots      map[slotKey][]*domain.Position
}

// NewBook creates a Book with the given per-side cap.
func NewBook(maxPerSide int) *Book {
	return &Book{
		maxPerSide: maxPerSide,
		slots:      make(map[slotKey][]*domain.Position),
	}
}

// OpenCount returns the number of currently open slots for (symbol, side).
func (b *Book) OpenCount(symbol string, side domain.PositionSide) int {
	n := 0
	for _, p := range b.slots[slotKey{symbol, side}] {
		if p.Status == domain.PositionStatusOpen {
			n++
		}
	}
	return n
}

// CanEnter reports whether a new (symbol, side) slot is admissible.
func (b *Book) CanEnter(symbol string, side domain.PositionSide) bool {
	return b.OpenCount(symbol, side) < b.maxPerSide
}

// RecordEntry creates and returns a new open slot. Callers must check
// CanEnter first; RecordEntry itself does not re-check the cap.
func (b *Book) RecordEntry(symbol string, side domain.PositionSide, bracketID string, entryPrice float64, qty int64, now time.Time) *domain.Position {
	p := &domain.Position{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   qty,
		Status:     domain.PositionStatusOpen,
		BracketID:  bracketID,
		OpenedAt:   now,
	}
	k := slotKey{symbol, side}
	b.slots[k] = append(b.slots[k], p)
	return p
}

// Release closes the slot created for bracketID, compensating for an entry
// leg the broker rejected. It returns false if no open slot matches.
func (b *Book) Release(symbol string, side domain.PositionSide, bracketID string, now time.Time) bool {
	for _, p := range b.slots[slotKey{symbol, side}] {
		if p.Status == domain.PositionStatusOpen && p.BracketID == bracketID {
			p.Status = domain.PositionStatusClosed
			t := now
			p.ClosedAt = &t
			return true
		}
	}
	return false
}

// CloseAll closes every open slot for the symbol, both sides. Used by the
// end-of-session square-off.
func (b *Book) CloseAll(symbol string, now time.Time) int {
	n := 0
	for _, side := range []domain.PositionSide{domain.SideLong, domain.SideShort} {
		for _, p := range b.slots[slotKey{symbol, side}] {
			if p.Status == domain.PositionStatusOpen {
				p.Status = domain.PositionStatusClosed
				t := now
				p.ClosedAt = &t
				n++
			}
		}
	}
	return n
}

// Symbols returns every symbol with at least one recorded slot.
func (b *Book) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range b.slots {
		if !seen[k.symbol] {
			seen[k.symbol] = true
			out = append(out, k.symbol)
		}
	}
	return out
}

// Snapshot copies all slots per symbol, open and closed.
func (b *Book) Snapshot() map[string][]domain.Position {
	out := make(map[string][]domain.Position)
	for k, ps := range b.slots {
		for _, p := range ps {
			out[k.symbol] = append(out[k.symbol], *p)
		}
	}
	return out
}
