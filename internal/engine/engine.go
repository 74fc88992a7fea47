// Package engine runs the session's single serialized decision loop. Every
// mutation of market state, opening-range verdicts, and position slots goes
// through one event stream consumed by one goroutine, so no two decision
// passes for a symbol can ever interleave and the square-off transition sees
// a fully consistent snapshot. Blocking gateway calls (order submission,
// position query during square-off) run as fire-and-forget tasks whose
// results re-enter the same stream.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orbot/internal/domain"
	"orbot/internal/market"
	"orbot/internal/metrics"
	"orbot/internal/position"
	"orbot/internal/strategy"
)

// Alerter surfaces high-severity conditions to operators. Implemented by
// the notify package; nil-able.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the engine's trading parameters.
type Config struct {
	Universe               []string
	RiskPerTrade           float64
	VolatilityThresholdPct float64
	MaxPerSide             int
	CandleWidth            time.Duration
	OpeningRangeCandles    int
	TimerInterval          time.Duration
}

// Collaborators are the optional external sinks the engine feeds. Any field
// may be nil; none of them can fail the session.
type Collaborators struct {
	Journal  domain.Journal
	Prices   domain.PriceCache
	Bus      domain.SignalBus
	Archiver domain.Archiver
	Alerter  Alerter
	Metrics  *metrics.Metrics
}

type eventKind int

const (
	evTick eventKind = iota
	evOrder
	evFeedClosed
)

type orderUpdate struct {
	bracket domain.Bracket
	leg     domain.BracketLeg
	result  domain.OrderResult
	err     error
}

type event struct {
	kind  eventKind
	tick  domain.Tick
	order orderUpdate
	err   error
}

// Engine owns all mutable session state and drives the component chain for
// each tick: aggregation, qualification, breakout detection, bracket
// construction, slot admission, order submission.
type Engine struct {
	cfg      Config
	clock    *SessionClock
	gateway  domain.OrderGateway
	collab   Collaborators
	logger   *slog.Logger
	universe map[string]bool

	agg      *market.Aggregator
	qual     *market.Qualifier
	book     *position.Book
	detector *strategy.Detector

	events   chan event
	done     chan struct{}
	doneOnce sync.Once

	halted    bool
	squared   bool
	feedErr   error
	lastPhase domain.SessionPhase
	summary   domain.SessionSummary

	nowFn func() time.Time
	// syncSubmit runs bracket submission inline instead of in a goroutine.
	// Used by tests to keep the event stream deterministic.
	syncSubmit bool
}

// New creates an Engine for one session described by clock.
func New(clock *SessionClock, gateway domain.OrderGateway, cfg Config, collab Collaborators, logger *slog.Logger) *Engine {
	if cfg.TimerInterval <= 0 {
		cfg.TimerInterval = 5 * time.Second
	}
	universe := make(map[string]bool, len(cfg.Universe))
	for _, s := range cfg.Universe {
		universe[s] = true
	}

	log := logger.With(slog.String("component", "engine"))
	book := position.NewBook(cfg.MaxPerSide)

	e := &Engine{
		cfg:      cfg,
		clock:    clock,
		gateway:  gateway,
		collab:   collab,
		logger:   log,
		universe: universe,
		agg:      market.NewAggregator(cfg.CandleWidth),
		qual: market.NewQualifier(market.QualifierConfig{
			MarketOpen:     clock.Open,
			FirstCandleEnd: clock.FirstCandleEnd,
			CandleWidth:    cfg.CandleWidth,
			Candles:        cfg.OpeningRangeCandles,
			ThresholdPct:   cfg.VolatilityThresholdPct,
		}, logger),
		book:      book,
		detector:  strategy.NewDetector(clock.EntryCutoff, book),
		events:    make(chan event, 1024),
		done:      make(chan struct{}),
		lastPhase: -1,
		nowFn:     time.Now,
	}
	e.summary.Date = clock.Open.Format("2006-01-02")
	return e
}

// OnTick enqueues a tick for processing. Safe to call from the feed
// goroutine; returns immediately once the engine has stopped.
func (e *Engine) OnTick(t domain.Tick) {
	select {
	case e.events <- event{kind: evTick, tick: t}:
	case <-e.done:
	}
}

// FeedClosed signals that the tick stream ended before market close. This is
// a fatal session condition: the engine halts all new entries but does not
// blindly square off, since without ticks there is no reliable price.
func (e *Engine) FeedClosed(err error) {
	select {
	case e.events <- event{kind: evFeedClosed, err: err}:
	case <-e.done:
	}
}

// Run consumes events until the session reaches Closed and square-off
// completes, or ctx is cancelled. It returns a non-nil error when the
// session ended degraded (feed lost mid-session).
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		slog.String("date", e.summary.Date),
		slog.Int("universe", len(e.universe)),
		slog.String("phase", e.clock.PhaseAt(e.nowFn()).String()),
	)
	defer e.logger.Info("engine stopped")
	defer e.doneOnce.Do(func() { close(e.done) })

	ticker := time.NewTicker(e.cfg.TimerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if e.onTimer(now) {
				return e.sessionResult()
			}
		case ev := <-e.events:
			switch ev.kind {
			case evTick:
				e.handleTick(ev.tick)
			case evOrder:
				e.handleOrderUpdate(ev.order)
			case evFeedClosed:
				e.handleFeedClosed(ev.err)
			}
		}
	}
}

// handleTick drives the per-tick component chain in fixed order.
func (e *Engine) handleTick(t domain.Tick) {
	e.summary.TicksSeen++
	e.collab.Metrics.TickSeen()

	if !t.Valid() {
		e.dropTick(t, "invalid_price")
		return
	}
	if !e.universe[t.Symbol] {
		e.dropTick(t, "unknown_symbol")
		return
	}
	if e.squared {
		return
	}

	now := t.Timestamp

	// 1. Aggregate.
	e.agg.OnTick(t.Symbol, t.Price, now)
	e.publishPrice(t)

	// 2. Qualify (no-op until the window closes, and after a verdict).
	rng := e.qual.Get(t.Symbol)
	if rng == nil {
		var decided bool
		rng, decided = e.qual.TryQualify(t.Symbol, e.agg.Series(t.Symbol), now)
		if decided {
			e.collab.Metrics.RangeVerdict(rng.Qualified)
		} else if e.qual.Due(now) {
			e.noteWindowDeferred(t.Symbol)
		}
	}

	// 3. Detect breakouts. No new entries once the feed is degraded.
	if e.halted || rng == nil || !rng.Qualified {
		return
	}
	for _, sig := range e.detector.OnPriceUpdate(t.Symbol, t.Price, now, rng) {
		e.admitSignal(sig)
	}
}

// admitSignal records the position slot and dispatches the bracket. The slot
// is taken before the order is confirmed so the per-side cap holds under
// submission latency; a rejected entry releases it via handleOrderUpdate.
func (e *Engine) admitSignal(sig domain.BreakoutSignal) {
	bracket := strategy.BuildBracket(sig, e.cfg.RiskPerTrade, sig.CreatedAt)
	e.book.RecordEntry(sig.Symbol, sig.Side, bracket.ID, sig.EntryPrice, bracket.Quantity, sig.CreatedAt)

	e.summary.SignalsEmitted++
	e.collab.Metrics.SignalEmitted(sig.Side)
	e.logger.Info("breakout admitted",
		slog.String("symbol", sig.Symbol),
		slog.String("side", string(sig.Side)),
		slog.Float64("entry", sig.EntryPrice),
		slog.Float64("stop", sig.StopPrice),
		slog.Int64("quantity", bracket.Quantity),
		slog.String("bracket_id", bracket.ID),
	)

	e.journalSignal(sig)
	e.publishSignal(sig)
	e.dispatchBracket(bracket)
}

func (e *Engine) dispatchBracket(b domain.Bracket) {
	if e.syncSubmit {
		e.runBracket(b, e.handleOrderUpdate)
		return
	}
	go e.runBracket(b, e.postOrder)
}

// runBracket submits the bracket legs against the gateway. The entry leg is
// all-or-nothing: stop and target are only submitted after the entry was
// accepted, and each is best-effort on its own.
func (e *Engine) runBracket(b domain.Bracket, post func(orderUpdate)) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := e.gateway.SubmitOrder(ctx, b.Entry)
	post(orderUpdate{bracket: b, leg: domain.LegEntry, result: res, err: err})
	if err != nil || !res.Accepted {
		return
	}

	res, err = e.gateway.SubmitOrder(ctx, b.Stop)
	post(orderUpdate{bracket: b, leg: domain.LegStop, result: res, err: err})

	res, err = e.gateway.SubmitOrder(ctx, b.Target)
	post(orderUpdate{bracket: b, leg: domain.LegTarget, result: res, err: err})
}

func (e *Engine) postOrder(u orderUpdate) {
	select {
	case e.events <- event{kind: evOrder, order: u}:
	case <-e.done:
	}
}

// handleOrderUpdate applies one leg outcome on the serialized stream.
func (e *Engine) handleOrderUpdate(u orderUpdate) {
	accepted := u.err == nil && u.result.Accepted
	e.collab.Metrics.OrderOutcome(u.leg, accepted)
	e.journalOrder(u)

	log := e.logger.With(
		slog.String("symbol", u.bracket.Symbol),
		slog.String("leg", string(u.leg)),
		slog.String("bracket_id", u.bracket.ID),
	)

	if accepted {
		e.summary.OrdersSubmitted++
		log.Info("order accepted", slog.String("order_id", u.result.OrderID))
		return
	}

	e.summary.OrdersRejected++
	reason := u.result.Reason
	if u.err != nil {
		reason = u.err.Error()
	}

	if u.leg == domain.LegEntry {
		released := e.book.Release(u.bracket.Symbol, u.bracket.Side, u.bracket.ID, e.nowFn())
		log.Warn("entry rejected, slot released",
			slog.String("reason", reason),
			slog.Bool("released", released),
		)
		e.alert("order_rejected", "entry rejected",
			fmt.Sprintf("%s %s entry rejected: %s", u.bracket.Symbol, u.bracket.Side, reason))
		return
	}

	// An accepted entry is now missing part of its protection.
	e.collab.Metrics.BareExposure()
	log.Error("protective leg rejected, exposure unprotected",
		slog.String("reason", reason),
	)
	e.alert("bare_exposure", "protective leg rejected",
		fmt.Sprintf("%s %s: %s leg rejected after accepted entry: %s",
			u.bracket.Symbol, u.bracket.Side, u.leg, reason))
}

func (e *Engine) handleFeedClosed(err error) {
	if e.halted || e.squared {
		return
	}
	e.halted = true
	e.feedErr = err
	if e.feedErr == nil {
		e.feedErr = domain.ErrFeedClosed
	}
	e.summary.FeedLost = true
	e.logger.Error("tick feed lost, halting new entries",
		slog.String("error", e.feedErr.Error()),
		slog.String("phase", e.clock.PhaseAt(e.nowFn()).String()),
	)
	e.alert("feed_lost", "tick feed lost",
		"feed closed before market close; no new entries will be admitted, operator intervention required")
}

// onTimer recomputes the session phase and fires the terminal square-off.
// Returns true when the session is over and Run should exit.
func (e *Engine) onTimer(now time.Time) bool {
	phase := e.clock.PhaseAt(now)
	e.collab.Metrics.SetPhase(phase)
	if phase != e.lastPhase {
		e.logger.Info("session phase changed", slog.String("phase", phase.String()))
		e.lastPhase = phase
	}
	if phase == domain.PhaseClosed && !e.squared {
		e.squareOff(now)
		e.squared = true
		return true
	}
	return false
}

// squareOff flattens every non-zero gateway position with a market order on
// the opposite side, closes all local slots, and emits the session summary
// and archive. It runs exactly once, on the serialized stream, so it can
// never interleave with an in-flight admission.
func (e *Engine) squareOff(now time.Time) {
	e.logger.Info("market closed, squaring off")

	opCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positions, err := e.gateway.OpenPositions(opCtx)
	if err != nil {
		e.logger.Error("open position query failed, square-off incomplete",
			slog.String("error", err.Error()),
		)
		e.alert("session_closed", "square-off incomplete",
			"position query failed at close: "+err.Error())
	}

	for _, p := range positions {
		if p.NetQuantity == 0 {
			continue
		}
		side := domain.OrderSideSell
		qty := p.NetQuantity
		if qty < 0 {
			side = domain.OrderSideBuy
			qty = -qty
		}
		req := domain.OrderRequest{
			Symbol:   p.Symbol,
			Side:     side,
			Quantity: qty,
			Type:     domain.OrderTypeMarket,
			Tag:      "square_off",
		}
		res, err := e.gateway.SubmitOrder(opCtx, req)
		e.summary.SquareOffOrders++
		e.collab.Metrics.SquareOffOrder()
		if err != nil || !res.Accepted {
			reason := res.Reason
			if err != nil {
				reason = err.Error()
			}
			e.logger.Error("square-off order failed",
				slog.String("symbol", p.Symbol),
				slog.Int64("net_quantity", p.NetQuantity),
				slog.String("reason", reason),
			)
			continue
		}
		e.logger.Info("square-off order submitted",
			slog.String("symbol", p.Symbol),
			slog.String("side", string(side)),
			slog.Int64("quantity", qty),
			slog.String("order_id", res.OrderID),
		)
	}

	for _, sym := range e.book.Symbols() {
		e.book.CloseAll(sym, now)
	}

	e.summary.ClosedAt = now
	e.finishSession(opCtx)
	e.alert("session_closed", "session closed",
		fmt.Sprintf("square-off done: %d flattening orders, %d signals, %d ticks",
			e.summary.SquareOffOrders, e.summary.SignalsEmitted, e.summary.TicksSeen))
}

// finishSession writes the summary and archive, best effort.
func (e *Engine) finishSession(ctx context.Context) {
	if e.collab.Journal != nil {
		if err := e.collab.Journal.RecordSessionSummary(ctx, e.summary); err != nil {
			e.logger.Warn("session summary journal failed", slog.String("error", err.Error()))
		}
	}
	if e.collab.Archiver != nil {
		archive := domain.SessionArchive{
			Date:      e.summary.Date,
			Candles:   e.agg.Snapshot(),
			Ranges:    e.qual.Snapshot(),
			Positions: e.book.Snapshot(),
			Summary:   e.summary,
		}
		if err := e.collab.Archiver.Archive(ctx, archive); err != nil {
			e.logger.Warn("session archive upload failed", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) sessionResult() error {
	if e.feedErr != nil {
		return fmt.Errorf("engine: session degraded: %w", e.feedErr)
	}
	return nil
}

func (e *Engine) dropTick(t domain.Tick, reason string) {
	e.summary.TicksDropped++
	e.collab.Metrics.TickDropped(reason)
	e.logger.Debug("tick dropped",
		slog.String("symbol", t.Symbol),
		slog.Float64("price", t.Price),
		slog.String("reason", reason),
	)
}

func (e *Engine) noteWindowDeferred(symbol string) {
	n := len(e.agg.Window(symbol, e.qual.WindowStart(), e.qual.WindowEnd()))
	reason := "window_short"
	if n > e.qual.WantCandles() {
		reason = "window_over"
	}
	e.collab.Metrics.WindowDeferred(reason)
}

// publishPrice mirrors the tick into the external price cache off the hot
// path. Failures are ignored; the cache is never load-bearing.
func (e *Engine) publishPrice(t domain.Tick) {
	if e.collab.Prices == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.collab.Prices.SetPrice(ctx, t.Symbol, t.Price, t.Timestamp.UnixNano())
	}()
}

func (e *Engine) publishSignal(sig domain.BreakoutSignal) {
	if e.collab.Bus == nil {
		return
	}
	payload, err := json.Marshal(sig)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.collab.Bus.Publish(ctx, "signals", payload)
	}()
}

func (e *Engine) journalSignal(sig domain.BreakoutSignal) {
	if e.collab.Journal == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.collab.Journal.RecordSignal(ctx, sig); err != nil {
			e.logger.Warn("signal journal failed", slog.String("error", err.Error()))
		}
	}()
}

func (e *Engine) journalOrder(u orderUpdate) {
	if e.collab.Journal == nil {
		return
	}
	req := u.bracket.Entry
	switch u.leg {
	case domain.LegStop:
		req = u.bracket.Stop
	case domain.LegTarget:
		req = u.bracket.Target
	}
	res := u.result
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.collab.Journal.RecordOrder(ctx, u.bracket.ID, u.leg, req, res); err != nil {
			e.logger.Warn("order journal failed", slog.String("error", err.Error()))
		}
	}()
}

func (e *Engine) alert(event, title, message string) {
	if e.collab.Alerter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.collab.Alerter.Notify(ctx, event, title, message)
	}()
}
