// Package metrics exposes the bot's operational counters in Prometheus text
// exposition format. All methods are nil-safe so callers can carry a nil
// *Metrics when the endpoint is disabled.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orbot/internal/domain"
)

// Metrics bundles the registry and the instruments the engine updates.
type Metrics struct {
	registry *prometheus.Registry

	ticksTotal      prometheus.Counter
	ticksDropped    *prometheus.CounterVec
	signalsTotal    *prometheus.CounterVec
	ordersTotal     *prometheus.CounterVec
	bareExposures   prometheus.Counter
	windowRetries   *prometheus.CounterVec
	sessionPhase    prometheus.Gauge
	qualifiedTotal  *prometheus.CounterVec
	squareOffOrders prometheus.Counter
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbot_ticks_total",
			Help: "Ticks received from the gateway feed.",
		}),
		ticksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbot_ticks_dropped_total",
			Help: "Ticks dropped before aggregation, by reason.",
		}, []string{"reason"}),
		signalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbot_signals_total",
			Help: "Breakout signals emitted, by side.",
		}, []string{"side"}),
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbot_orders_total",
			Help: "Order legs submitted to the gateway, by leg and outcome.",
		}, []string{"leg", "outcome"}),
		bareExposures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbot_bare_exposures_total",
			Help: "Stop or target legs rejected after an accepted entry.",
		}),
		windowRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbot_opening_window_retries_total",
			Help: "Opening-range checks deferred because the window did not hold exactly the configured candle count.",
		}, []string{"reason"}),
		sessionPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbot_session_phase",
			Help: "Current session phase (0=pre_market .. 4=closed).",
		}),
		qualifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbot_opening_range_verdicts_total",
			Help: "Opening-range verdicts, by outcome.",
		}, []string{"verdict"}),
		squareOffOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbot_square_off_orders_total",
			Help: "Flattening orders submitted at session close.",
		}),
	}
	reg.MustRegister(
		m.ticksTotal, m.ticksDropped, m.signalsTotal, m.ordersTotal,
		m.bareExposures, m.windowRetries, m.sessionPhase, m.qualifiedTotal,
		m.squareOffOrders,
	)
	return m
}

func (m *Metrics) TickSeen() {
	if m != nil {
		m.ticksTotal.Inc()
	}
}

func (m *Metrics) TickDropped(reason string) {
	if m != nil {
		m.ticksDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SignalEmitted(side domain.PositionSide) {
	if m != nil {
		m.signalsTotal.WithLabelValues(string(side)).Inc()
	}
}

func (m *Metrics) OrderOutcome(leg domain.BracketLeg, accepted bool) {
	if m != nil {
		outcome := "accepted"
		if !accepted {
			outcome = "rejected"
		}
		m.ordersTotal.WithLabelValues(string(leg), outcome).Inc()
	}
}

func (m *Metrics) BareExposure() {
	if m != nil {
		m.bareExposures.Inc()
	}
}

func (m *Metrics) WindowDeferred(reason string) {
	if m != nil {
		m.windowRetries.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SetPhase(p domain.SessionPhase) {
	if m != nil {
		m.sessionPhase.Set(float64(p))
	}
}

func (m *Metrics) RangeVerdict(qualified bool) {
	if m != nil {
		verdict := "qualified"
		if !qualified {
			verdict = "disqualified"
		}
		m.qualifiedTotal.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) SquareOffOrder() {
	if m != nil {
		m.squareOffOrders.Inc()
	}
}

// Serve runs an HTTP listener exposing /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
