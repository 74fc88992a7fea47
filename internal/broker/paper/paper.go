// Package paper is an in-memory broker gateway for dry runs and tests. It
// accepts every order, assigns sequential IDs, and tracks net positions as
// if each entry order filled at its price.
package paper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"orbot/internal/domain"
)

// Gateway implements domain.OrderGateway without any external I/O.
type Gateway struct {
	mu     sync.Mutex
	nextID int
	orders []domain.OrderRequest
	net    map[string]int64

	// RejectTags marks order tags (or tag prefixes) to reject, for
	// exercising rejection paths in tests.
	rejectSubstrings []string
}

// New creates an empty paper Gateway.
func New() *Gateway {
	return &Gateway{net: make(map[string]int64)}
}

// RejectMatching makes the gateway reject any order whose tag contains one
// of the given substrings.
func (g *Gateway) RejectMatching(substrings ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejectSubstrings = append(g.rejectSubstrings, substrings...)
}

// SubmitOrder records the order and reports it accepted, unless its tag was
// marked for rejection. Entry and square-off market/limit orders adjust the
// tracked net position; stop and target legs do not (they are resting orders
// that never "fill" in paper mode).
func (g *Gateway) SubmitOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, sub := range g.rejectSubstrings {
		if sub != "" && strings.Contains(req.Tag, sub) {
			return domain.OrderResult{Accepted: false, Reason: "rejected by paper gateway"}, nil
		}
	}

	g.nextID++
	g.orders = append(g.orders, req)

	if req.Type != domain.OrderTypeStopMarket && !isExitTag(req.Tag) {
		delta := req.Quantity
		if req.Side == domain.OrderSideSell {
			delta = -delta
		}
		g.net[req.Symbol] += delta
	}

	return domain.OrderResult{
		Accepted: true,
		OrderID:  fmt.Sprintf("paper-%d", g.nextID),
	}, nil
}

// OpenPositions returns the simulated net positions.
func (g *Gateway) OpenPositions(_ context.Context) ([]domain.NetPosition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []domain.NetPosition
	for sym, qty := range g.net {
		if qty != 0 {
			out = append(out, domain.NetPosition{Symbol: sym, Exchange: "paper", NetQuantity: qty})
		}
	}
	return out, nil
}

// SetNetPosition overrides the tracked net position for a symbol.
func (g *Gateway) SetNetPosition(symbol string, qty int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.net[symbol] = qty
}

// Orders returns a copy of every submitted order in submission order.
func (g *Gateway) Orders() []domain.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.OrderRequest, len(g.orders))
	copy(out, g.orders)
	return out
}

// isExitTag reports whether the tag marks a target leg, which closes
// exposure rather than opening it.
func isExitTag(tag string) bool {
	return strings.Contains(tag, string(domain.LegTarget))
}

var _ domain.OrderGateway = (*Gateway)(nil)
