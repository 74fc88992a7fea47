package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"orbot/internal/domain"
)

// Journal implements domain.Journal using PostgreSQL.
type Journal struct {
	pool *pgxpool.Pool
}

// NewJournal creates a new Journal backed by the given connection pool.
func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool}
}

var _ domain.Journal = (*Journal)(nil)

// RecordSignal inserts an emitted breakout signal.
func (j *Journal) RecordSignal(ctx context.Context, sig domain.BreakoutSignal) error {
	const query = `
		INSERT INTO signals (
			id, symbol, side, entry_price, stop_price, last_price, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := j.pool.Exec(ctx, query,
		sig.ID, sig.Symbol, string(sig.Side),
		sig.EntryPrice, sig.StopPrice, sig.LastPrice,
		sig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record signal %s: %w", sig.ID, err)
	}
	return nil
}

// RecordOrder inserts the outcome of a single bracket leg submission.
func (j *Journal) RecordOrder(ctx context.Context, bracketID string, leg domain.BracketLeg, req domain.OrderRequest, res domain.OrderResult) error {
	const query = `
		INSERT INTO orders (
			bracket_id, leg, symbol, side, order_type, quantity,
			price, trigger_price, tag, accepted, broker_order_id, reject_reason,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())`

	_, err := j.pool.Exec(ctx, query,
		bracketID, string(leg), req.Symbol,
		string(req.Side), string(req.Type), req.Quantity,
		req.Price, req.TriggerPrice, req.Tag,
		res.Accepted, res.OrderID, res.Reason,
	)
	if err != nil {
		return fmt.Errorf("postgres: record order %s/%s: %w", bracketID, leg, err)
	}
	return nil
}

// RecordSessionSummary inserts the end-of-session wrap-up row. Re-running a
// session for the same date overwrites the previous summary.
func (j *Journal) RecordSessionSummary(ctx context.Context, summary domain.SessionSummary) error {
	const query = `
		INSERT INTO session_summaries (
			session_date, ticks_seen, ticks_dropped, signals_emitted,
			orders_submitted, orders_rejected, square_off_orders,
			feed_lost, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_date) DO UPDATE SET
			ticks_seen = EXCLUDED.ticks_seen,
			ticks_dropped = EXCLUDED.ticks_dropped,
			signals_emitted = EXCLUDED.signals_emitted,
			orders_submitted = EXCLUDED.orders_submitted,
			orders_rejected = EXCLUDED.orders_rejected,
			square_off_orders = EXCLUDED.square_off_orders,
			feed_lost = EXCLUDED.feed_lost,
			closed_at = EXCLUDED.closed_at`

	_, err := j.pool.Exec(ctx, query,
		summary.Date, summary.TicksSeen, summary.TicksDropped,
		summary.SignalsEmitted, summary.OrdersSubmitted, summary.OrdersRejected,
		summary.SquareOffOrders, summary.FeedLost, summary.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record session summary %s: %w", summary.Date, err)
	}
	return nil
}
