package domain

import "context"

// OrderGateway is the broker capability the engine needs: submit one order,
// snapshot open positions. Authentication, token resolution, and the wire
// protocol behind these calls are the gateway implementation's concern.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	OpenPositions(ctx context.Context) ([]NetPosition, error)
}

// Journal is a write-only audit sink for session activity. Implementations
// must never be load-bearing: journal failures are logged and dropped, and
// nothing is ever read back during a session.
type Journal interface {
	RecordSignal(ctx context.Context, sig BreakoutSignal) error
	RecordOrder(ctx context.Context, bracketID string, leg BracketLeg, req OrderRequest, res OrderResult) error
	RecordSessionSummary(ctx context.Context, summary SessionSummary) error
}

// PriceCache stores the latest observed price per symbol for external
// consumers (dashboards, other processes).
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price float64, tsUnixNano int64) error
}

// SignalBus publishes emitted breakout signals to external observers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Archiver uploads the end-of-session archive.
type Archiver interface {
	Archive(ctx context.Context, archive SessionArchive) error
}
