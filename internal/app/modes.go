package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"orbot/internal/broker/paper"
	"orbot/internal/broker/rest"
	"orbot/internal/broker/ws"
	"orbot/internal/crypto"
	"orbot/internal/domain"
	"orbot/internal/engine"
	"orbot/internal/metrics"
)

// LiveMode trades real money: broker REST gateway for orders, broker
// websocket for ticks.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode")

	secret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:     a.cfg.Broker.ApiSecret,
		EncryptedPath: a.cfg.Broker.EncryptedSecretPath,
		Password:      a.cfg.Broker.SecretPassword,
	})
	if err != nil {
		return fmt.Errorf("app: resolve broker secret: %w", err)
	}

	gateway := rest.New(a.cfg.Broker.RestURL, a.cfg.Broker.ApiKey, secret)
	return a.runSession(ctx, deps, gateway)
}

// PaperMode runs the full strategy against live ticks with a simulated
// broker; no real orders leave the process.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode")
	return a.runSession(ctx, deps, paper.New())
}

// runSession builds the session clock and engine for today's trading day and
// runs the engine, tick feed, and metrics server until the session closes.
func (a *App) runSession(ctx context.Context, deps *Dependencies, gateway domain.OrderGateway) error {
	loc, err := a.cfg.Session.Location()
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	open, firstCandleEnd, entryCutoff, marketClose, err := a.cfg.Session.Resolve(time.Now().In(loc))
	if err != nil {
		return fmt.Errorf("app: resolve session cutoffs: %w", err)
	}

	clock, err := engine.NewSessionClock(open, firstCandleEnd, entryCutoff, marketClose)
	if err != nil {
		return fmt.Errorf("app: session clock: %w", err)
	}

	var m *metrics.Metrics
	if a.cfg.Metrics.Enabled {
		m = metrics.New()
	}

	eng := engine.New(clock, gateway, engine.Config{
		Universe:               a.cfg.Universe.Symbols,
		RiskPerTrade:           a.cfg.Strategy.RiskPerTrade,
		VolatilityThresholdPct: a.cfg.Strategy.VolatilityThresholdPct,
		MaxPerSide:             a.cfg.Strategy.MaxPerSide,
		CandleWidth:            a.cfg.Session.CandleWidth.Duration,
		OpeningRangeCandles:    a.cfg.Session.OpeningRangeCandles,
		TimerInterval:          a.cfg.Session.TimerInterval.Duration,
	}, engine.Collaborators{
		Journal:  deps.Journal,
		Prices:   deps.Prices,
		Bus:      deps.Bus,
		Archiver: deps.Archiver,
		Alerter:  deps.Notifier,
		Metrics:  m,
	}, a.logger)

	// The engine finishing (square-off complete) ends the whole session, so
	// its completion cancels the feed and metrics goroutines.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return eng.Run(ctx)
	})

	if a.cfg.Broker.WsURL != "" {
		feed := ws.NewFeed(
			a.cfg.Broker.WsURL,
			a.cfg.Broker.ApiKey,
			a.cfg.Universe.Symbols,
			eng.OnTick,
			a.logger,
		)
		g.Go(func() error {
			err := feed.Run(ctx)
			if err != nil && ctx.Err() == nil {
				// Feed loss is surfaced to the engine, which halts new
				// entries but keeps the session alive through square-off.
				eng.FeedClosed(err)
			}
			return nil
		})
	} else {
		a.logger.WarnContext(ctx, "no websocket url configured; engine will see no ticks")
	}

	if m != nil {
		g.Go(func() error {
			return m.Serve(ctx, a.cfg.Metrics.Port)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
